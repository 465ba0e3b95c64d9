// Package weights resolves named weight tensors for the decoder's layers.
//
// A Store holds tensors under flat, dot-separated names that mirror the
// checkpoint's naming convention (e.g. "layers.3.mlp.down_proj.weight").
// A Builder is an immutable handle pairing a Store with a name prefix; PP
// narrows the prefix so each layer can be constructed from a handle scoped
// to its own sub-tree:
//
//	store, err := weights.OpenSafeTensors("model.safetensors")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	b := weights.NewBuilder(store).PP("layers").PP("0").PP("mlp")
//	w, err := b.PP("down_proj").Get("weight") // layers.0.mlp.down_proj.weight
//
// Every resolution failure is reported as a *WeightLoadError carrying the
// fully-qualified tensor path.
package weights
