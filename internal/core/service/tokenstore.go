package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yndnr/sesskeep-go/internal/core/domain"
	"github.com/yndnr/sesskeep-go/internal/storage"
	"github.com/yndnr/sesskeep-go/internal/telemetry/logger"
	"github.com/yndnr/sesskeep-go/internal/telemetry/metric"
)

// Persisted record keys.
const (
	KeyTokens       = "auth_tokens"
	KeyUser         = "user"
	KeyOrganization = "organization"
)

var allKeys = []string{KeyTokens, KeyUser, KeyOrganization}

// Persisted is the decoded content of the three session records.
// Each field is independently nil when its record is absent.
type Persisted struct {
	Tokens       *domain.TokenSet
	User         *domain.User
	Organization *domain.Organization
}

// TokenStore persists the session records in a KVStore.
type TokenStore struct {
	kv      storage.KVStore
	logger  logger.Logger
	metrics *metric.Registry
}

// StoreOption configures a TokenStore.
type StoreOption func(*TokenStore)

// WithStoreLogger sets the logger used for corruption and I/O warnings.
func WithStoreLogger(l logger.Logger) StoreOption {
	return func(s *TokenStore) {
		s.logger = l
	}
}

// WithStoreMetrics sets the registry that counts corruption recoveries.
func WithStoreMetrics(m *metric.Registry) StoreOption {
	return func(s *TokenStore) {
		s.metrics = m
	}
}

// NewTokenStore creates a TokenStore over kv.
func NewTokenStore(kv storage.KVStore, opts ...StoreOption) *TokenStore {
	s := &TokenStore{
		kv:     kv,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and decodes all three records.
//
// A record that fails to decode, or records that contradict each other, mean
// the whole session is corrupted: all three keys are deleted and an empty
// Persisted is returned. Load never fails.
func (s *TokenStore) Load(ctx context.Context) Persisted {
	var p Persisted

	raw := make(map[string][]byte, len(allKeys))
	for _, key := range allKeys {
		data, err := s.kv.Get(ctx, key)
		if errors.Is(err, storage.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("session record read failed", "key", key, "error", err)
			return Persisted{}
		}
		raw[key] = data
	}

	if data, ok := raw[KeyTokens]; ok {
		if err := decodeRecord(data, &p.Tokens); err != nil {
			return s.recover(ctx, KeyTokens, err)
		}
		if err := p.Tokens.Validate(); err != nil {
			return s.recover(ctx, KeyTokens, err)
		}
	}
	if data, ok := raw[KeyUser]; ok {
		if err := decodeRecord(data, &p.User); err != nil {
			return s.recover(ctx, KeyUser, err)
		}
		if err := p.User.Validate(); err != nil {
			return s.recover(ctx, KeyUser, err)
		}
	}
	if data, ok := raw[KeyOrganization]; ok {
		if err := decodeRecord(data, &p.Organization); err != nil {
			return s.recover(ctx, KeyOrganization, err)
		}
	}

	if p.User != nil && p.Organization != nil && p.User.OrganizationID != p.Organization.ID {
		return s.recover(ctx, KeyOrganization,
			errors.New("organization id does not match user organization id"))
	}

	return p
}

// SaveSession writes all three records as one group. A nil org deletes the
// organization record.
//
// On a store with atomic batches a failure leaves the previous records
// intact. Otherwise a failure clears all three records so no partial session
// survives.
func (s *TokenStore) SaveSession(ctx context.Context, tokens *domain.TokenSet, user *domain.User, org *domain.Organization) error {
	tokensData, err := json.Marshal(tokens)
	if err != nil {
		return domain.ErrStorage.WithDetails("encode tokens").WithCause(err)
	}
	userData, err := json.Marshal(user)
	if err != nil {
		return domain.ErrStorage.WithDetails("encode user").WithCause(err)
	}

	ops := []storage.Op{
		storage.SetOp(KeyTokens, tokensData),
		storage.SetOp(KeyUser, userData),
	}
	if org != nil {
		orgData, err := json.Marshal(org)
		if err != nil {
			return domain.ErrStorage.WithDetails("encode organization").WithCause(err)
		}
		ops = append(ops, storage.SetOp(KeyOrganization, orgData))
	} else {
		ops = append(ops, storage.DeleteOp(KeyOrganization))
	}

	if err := storage.Apply(ctx, s.kv, ops); err != nil {
		if !storage.IsAtomic(s.kv) {
			if clearErr := s.Clear(ctx); clearErr != nil {
				s.logger.Warn("clear after failed save failed", "error", clearErr)
			}
		}
		return domain.ErrStorage.WithDetails("save session").WithCause(err)
	}
	return nil
}

// SaveTokens replaces only the tokens record.
func (s *TokenStore) SaveTokens(ctx context.Context, tokens *domain.TokenSet) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return domain.ErrStorage.WithDetails("encode tokens").WithCause(err)
	}
	if err := s.kv.Set(ctx, KeyTokens, data); err != nil {
		return domain.ErrStorage.WithDetails("save tokens").WithCause(err)
	}
	return nil
}

// Clear removes all three records.
func (s *TokenStore) Clear(ctx context.Context) error {
	ops := make([]storage.Op, 0, len(allKeys))
	for _, key := range allKeys {
		ops = append(ops, storage.DeleteOp(key))
	}
	if err := storage.Apply(ctx, s.kv, ops); err != nil {
		return domain.ErrStorage.WithDetails("clear session").WithCause(err)
	}
	return nil
}

func (s *TokenStore) recover(ctx context.Context, key string, cause error) Persisted {
	err := domain.ErrCorruptedState.WithDetails(key).WithCause(cause)
	s.logger.Warn("corrupted session state, clearing", "key", key, "error", err)
	s.metrics.IncCorruptedStateRecovery()

	if clearErr := s.Clear(ctx); clearErr != nil {
		s.logger.Warn("clear corrupted session failed", "error", clearErr)
	}
	return Persisted{}
}

// decodeRecord unmarshals a JSON object into *dst. A JSON null is rejected:
// a present record must carry a value.
func decodeRecord[T any](data []byte, dst **T) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return err
	}
	if *dst == nil {
		return errors.New("record is null")
	}
	return nil
}
