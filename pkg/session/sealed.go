package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/vaultcore/pkg/docstore"
	"github.com/dmitrymomot/vaultcore/pkg/envelope"
	"github.com/dmitrymomot/vaultcore/pkg/logger"
)

// NewDocumentID returns a random identifier for a sealed document.
func NewDocumentID() string {
	return uuid.NewString()
}

// SealDocument encrypts plaintext with the working key and stores it under id.
func (m *Manager) SealDocument(ctx context.Context, id string, plaintext []byte) error {
	if m.docs == nil {
		return ErrNoDocumentStore
	}

	var data []byte
	err := m.WithKey(func(key *envelope.Key) error {
		env, err := envelope.SealWithKey(key, plaintext)
		if err != nil {
			return err
		}
		data, err = json.Marshal(env)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrLocked) {
			m.report(ctx, "seal_document", err)
		}
		return err
	}

	if err := m.docs.Put(ctx, id, data); err != nil {
		if !errors.Is(err, docstore.ErrInvalidID) {
			m.report(ctx, "put_document", err)
		}
		return err
	}
	m.log.DebugContext(ctx, "document sealed", logger.DocumentID(id))
	return nil
}

// OpenDocument loads the document stored under id and decrypts it with the working key.
func (m *Manager) OpenDocument(ctx context.Context, id string) ([]byte, error) {
	if m.docs == nil {
		return nil, ErrNoDocumentStore
	}
	if !m.IsUnlocked() {
		return nil, ErrLocked
	}

	data, err := m.docs.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) && !errors.Is(err, docstore.ErrInvalidID) {
			m.report(ctx, "get_document", err)
		}
		return nil, err
	}

	var env envelope.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		err = errors.Join(ErrStorageTampered, err)
		m.report(ctx, "open_document", err)
		return nil, err
	}

	var plaintext []byte
	err = m.WithKey(func(key *envelope.Key) error {
		out, err := env.OpenWithKey(key)
		plaintext = out
		return err
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// DeleteDocument removes the document stored under id.
func (m *Manager) DeleteDocument(ctx context.Context, id string) error {
	if m.docs == nil {
		return ErrNoDocumentStore
	}
	if err := m.docs.Delete(ctx, id); err != nil {
		if !errors.Is(err, docstore.ErrInvalidID) {
			m.report(ctx, "delete_document", err)
		}
		return err
	}
	return nil
}
