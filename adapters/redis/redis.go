// Package redis stores forms in Redis, one JSON document per form.
package redis

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/pkg/formjson"
	"github.com/artpar/formgate/ports"
)

// Config holds the connection settings. ConfigFromEnv fills it from the
// environment, using the defaults in the tags.
type Config struct {
	Addr      string `env:"FORMGATE_REDIS_ADDR,default=localhost:6379"`
	Password  string `env:"FORMGATE_REDIS_PASSWORD"`
	DB        int    `env:"FORMGATE_REDIS_DB,default=0"`
	KeyPrefix string `env:"FORMGATE_REDIS_PREFIX,default=formgate:"`
}

// ConfigFromEnv decodes Config from FORMGATE_REDIS_* variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode redis config: %w", err)
	}
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "formgate:"
	}
	return cfg, nil
}

// FormStore implements ports.FormStore. A form lives under <prefix>form:<id>
// and its id is a member of the set <prefix>forms.
type FormStore struct {
	client *redis.Client
	prefix string
	opts   []form.SectionOption
}

// New wraps an existing client.
func New(client *redis.Client, prefix string, opts ...form.SectionOption) (*FormStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = "formgate:"
	}
	return &FormStore{client: client, prefix: prefix, opts: opts}, nil
}

// Open connects using cfg and checks the connection.
func Open(ctx context.Context, cfg Config, opts ...form.SectionOption) (*FormStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.KeyPrefix, opts...)
}

func (s *FormStore) formKey(id string) string { return s.prefix + "form:" + id }
func (s *FormStore) indexKey() string          { return s.prefix + "forms" }

// Get loads and decodes a form.
func (s *FormStore) Get(ctx context.Context, id string) (*form.Form, error) {
	data, err := s.client.Get(ctx, s.formKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("form %q: %w", id, form.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get form %q: %w", id, err)
	}
	return formjson.UnmarshalForm(data, s.opts...)
}

// List returns summaries of every indexed form, oldest first. Index entries
// whose document has disappeared are skipped.
func (s *FormStore) List(ctx context.Context) ([]ports.FormSummary, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	if len(ids) == 0 {
		return []ports.FormSummary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.formKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load forms: %w", err)
	}

	out := make([]ports.FormSummary, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var doc formjson.FormDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode form %q: %w", ids[i], err)
		}
		out = append(out, summarize(doc))
	}
	slices.SortFunc(out, func(a, b ports.FormSummary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func summarize(doc formjson.FormDocument) ports.FormSummary {
	sum := ports.FormSummary{
		ID:        doc.ID,
		Name:      doc.Name,
		Sections:  len(doc.Sections),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, sd := range doc.Sections {
		sum.Fields += len(sd.Fields)
	}
	return sum
}

// Save writes the document and indexes it in one MULTI/EXEC.
func (s *FormStore) Save(ctx context.Context, f *form.Form) error {
	data, err := formjson.MarshalForm(f)
	if err != nil {
		return fmt.Errorf("save form %q: %w", f.ID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.formKey(f.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), f.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save form %q: %w", f.ID, err)
	}
	return nil
}

// Delete removes the document and its index entry.
func (s *FormStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.formKey(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete form %q: %w", id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("form %q: %w", id, form.ErrNotFound)
	}
	return nil
}

// Close closes the client.
func (s *FormStore) Close() error {
	return s.client.Close()
}

var _ ports.FormStore = (*FormStore)(nil)
