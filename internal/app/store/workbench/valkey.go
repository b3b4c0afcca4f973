// internal/app/store/workbench/valkey.go
package workbench

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore keeps workbenches in Valkey so several app instances can serve
// the same browser session. Entries expire after ttl of inactivity.
type ValkeyStore struct {
	client  valkey.Client
	prefix  string
	ttl     time.Duration
	busyTTL time.Duration
}

// NewValkeyStore builds a store on client. busyTTL bounds how long a busy
// marker survives a crashed run; it should exceed the backend timeout.
func NewValkeyStore(client valkey.Client, prefix string, ttl, busyTTL time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "stratasim:wb"
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if busyTTL < time.Second {
		busyTTL = 2 * time.Minute
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl, busyTTL: busyTTL}
}

func (s *ValkeyStore) Load(ctx context.Context, id string) (*State, error) {
	key := s.stateKey(id)
	// GETEX refreshes the idle TTL in the same round trip; reading counts
	// as activity.
	cmd := s.client.B().Getex().Key(key).ExSeconds(seconds(s.ttl)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("valkey get %s: %w", key, err)
	}

	var st State
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return nil, fmt.Errorf("decode workbench %s: %w", id, err)
	}
	return &st, nil
}

func (s *ValkeyStore) Save(ctx context.Context, st *State) error {
	st.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode workbench %s: %w", st.ID, err)
	}
	cmd := s.client.B().Set().Key(s.stateKey(st.ID)).Value(string(payload)).ExSeconds(seconds(s.ttl)).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Delete(ctx context.Context, id string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.stateKey(id), s.busyKey(id)).Build()).Error()
}

func (s *ValkeyStore) TryBegin(ctx context.Context, id string) error {
	cmd := s.client.B().Set().Key(s.busyKey(id)).Value("1").Nx().ExSeconds(seconds(s.busyTTL)).Build()
	err := s.client.Do(ctx, cmd).Error()
	if err == nil {
		return nil
	}
	if valkey.IsValkeyNil(err) {
		return ErrBusy
	}
	return fmt.Errorf("valkey busy marker: %w", err)
}

func (s *ValkeyStore) End(ctx context.Context, id string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.busyKey(id)).Build()).Error()
}

// Sweep is a no-op; Valkey expires idle workbenches itself.
func (s *ValkeyStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Ping checks the connection.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("valkey ping: %w", err)
	}
	return nil
}

func (s *ValkeyStore) stateKey(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *ValkeyStore) busyKey(id string) string {
	return fmt.Sprintf("%s:%s:busy", s.prefix, id)
}

func seconds(d time.Duration) int64 {
	if d < time.Second {
		return 1
	}
	return int64(d / time.Second)
}

var _ Store = (*ValkeyStore)(nil)
