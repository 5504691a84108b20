package store

import (
	"context"

	"github.com/kinetic-dev/kinetic/pkg/kinetic"
)

// SaveSnapshot serializes the instance and writes it under name.
func SaveSnapshot(ctx context.Context, st Store, name string, in *kinetic.Instance) error {
	text, err := in.ToText()
	if err != nil {
		return err
	}
	return st.Save(ctx, name, text)
}

// RestoreSnapshot loads the named snapshot and applies it to the instance,
// overwriting its stored fields and firing "restored".
func RestoreSnapshot(ctx context.Context, st Store, name string, in *kinetic.Instance) error {
	text, err := st.Load(ctx, name)
	if err != nil {
		return err
	}
	return in.ApplyText(text)
}
