package session

import (
	"context"
	"errors"

	"github.com/dmitrymomot/vaultcore/pkg/kvstore"
)

// EffectKind names a persistence effect produced by a transition.
type EffectKind string

const (
	EffectSaveRecord   EffectKind = "save_record"
	EffectDeleteRecord EffectKind = "delete_record"
)

// Effect is a pending write to the auth record.
type Effect struct {
	Kind   EffectKind
	Record Record
}

func saveRecord(rec Record) Effect {
	return Effect{Kind: EffectSaveRecord, Record: rec}
}

func deleteRecord() Effect {
	return Effect{Kind: EffectDeleteRecord}
}

// applyEffects runs effects in order and stops at the first failure.
func applyEffects(ctx context.Context, store kvstore.Store, key string, effects []Effect) error {
	for _, e := range effects {
		var err error
		switch e.Kind {
		case EffectSaveRecord:
			err = kvstore.SetJSON(ctx, store, key, e.Record)
		case EffectDeleteRecord:
			err = store.Delete(ctx, key)
		default:
			err = errors.New("unknown effect " + string(e.Kind))
		}
		if err != nil {
			return errors.Join(ErrPersistFailed, err)
		}
	}
	return nil
}
