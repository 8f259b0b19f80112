package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/KillerHyena/Inquiro/internal/infra"
	"github.com/KillerHyena/Inquiro/internal/sqlinline"
)

const (
	ProviderOpenAI = "openai"
)

// Store reads and writes provider API keys kept in integration_tokens.
// Several OpenAI keys are stored as one comma separated token.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// OpenAIAPIKeys returns the stored keys in order, without blanks. A missing
// row yields an empty list.
func (s *Store) OpenAIAPIKeys(ctx context.Context) ([]string, error) {
	token, err := s.Token(ctx, ProviderOpenAI)
	if err != nil {
		return nil, err
	}
	return SplitKeys(token), nil
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKeys, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetOpenAIAPIKeys replaces the stored key list.
func (s *Store) SetOpenAIAPIKeys(ctx context.Context, keys []string) error {
	keys = SplitKeys(strings.Join(keys, ","))
	if len(keys) == 0 {
		return errors.New("openai api key is required")
	}
	return s.upsert(ctx, ProviderOpenAI, strings.Join(keys, ","), map[string]any{"count": len(keys)})
}

// AppendOpenAIAPIKey adds key to the stored list unless it is already there.
func (s *Store) AppendOpenAIAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("openai api key is required")
	}
	existing, err := s.OpenAIAPIKeys(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(existing, key) {
		return nil
	}
	return s.SetOpenAIAPIKeys(ctx, append(existing, key))
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertProviderKeys, provider, token, raw)
	return err
}

// SplitKeys splits a comma separated key list, trimming entries and
// dropping blanks.
func SplitKeys(raw string) []string {
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}
