package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"petledger/pkg/platform/sentinel"
)

var casDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "petledger_transfer_cas_duration_ms",
	Help:    "Latency of transfer compare-and-set writes in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const transferKeyPrefix = "transfer:subject:"

// createScript inserts a record unless a non-terminal one already exists.
// Terminal leftovers from a previous transfer of the same listing are
// replaced.
var createScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if raw then
  local rec = cjson.decode(raw)
  if rec.status ~= 'COMPLETED' and rec.status ~= 'CANCELLED' then
    return 'conflict:' .. rec.status
  end
end
redis.call('SET', KEYS[1], ARGV[1])
return 'ok'
`)

// casScript applies a patch only when the stored status matches the caller's
// expectation. The decode, check, and write happen inside Redis so two
// parties racing on the same record cannot interleave.
var casScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return 'not_found'
end
local rec = cjson.decode(raw)
if rec.status ~= ARGV[1] then
  return 'invalid_state:' .. rec.status
end
rec.status = ARGV[2]
if ARGV[3] ~= '' then rec.signature = ARGV[3] end
if ARGV[4] ~= '' then rec.verificationProof = ARGV[4] end
if ARGV[5] ~= '' then rec.similarity = tonumber(ARGV[5]) end
rec.updatedAt = ARGV[6]
local encoded = cjson.encode(rec)
if tonumber(ARGV[7]) > 0 then
  redis.call('SET', KEYS[1], encoded, 'EX', ARGV[7])
else
  redis.call('SET', KEYS[1], encoded, 'KEEPTTL')
end
return encoded
`)

// cancelScript moves any non-terminal record to CANCELLED. Terminal records
// are never overwritten.
var cancelScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return 'not_found'
end
local rec = cjson.decode(raw)
if rec.status == 'COMPLETED' or rec.status == 'CANCELLED' then
  return 'terminal:' .. rec.status
end
rec.status = 'CANCELLED'
rec.updatedAt = ARGV[1]
local encoded = cjson.encode(rec)
redis.call('SET', KEYS[1], encoded, 'EX', ARGV[2])
return encoded
`)

// RedisStore is the production transfer store. All multi-step mutations run
// as Lua scripts so the compare-and-set is atomic across instances.
type RedisStore struct {
	client      *redis.Client
	terminalTTL time.Duration
}

func NewRedisStore(client *redis.Client, terminalTTL time.Duration) *RedisStore {
	if terminalTTL <= 0 {
		terminalTTL = 24 * time.Hour
	}
	return &RedisStore{client: client, terminalTTL: terminalTTL}
}

func key(subjectID string) string {
	return transferKeyPrefix + subjectID
}

func (s *RedisStore) Get(ctx context.Context, subjectID string) (Record, error) {
	raw, err := s.client.Get(ctx, key(subjectID)).Result()
	if err == redis.Nil {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get transfer record: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Record{}, fmt.Errorf("decode transfer record: %w", err)
	}
	return record, nil
}

func (s *RedisStore) Create(ctx context.Context, record Record) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode transfer record: %w", err)
	}

	res, err := createScript.Run(ctx, s.client, []string{key(record.SubjectID)}, string(encoded)).Text()
	if err != nil {
		return fmt.Errorf("create transfer record: %w", err)
	}
	if strings.HasPrefix(res, "conflict:") {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) UpdateStatus(ctx context.Context, subjectID string, expected Status, patch Patch, now time.Time) (Record, error) {
	start := time.Now()
	defer func() {
		casDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	similarity := ""
	if patch.Similarity != nil {
		similarity = fmt.Sprintf("%g", *patch.Similarity)
	}
	ttl := 0
	if patch.Status.IsTerminal() {
		ttl = int(s.terminalTTL.Seconds())
	}

	res, err := casScript.Run(ctx, s.client, []string{key(subjectID)},
		string(expected),
		string(patch.Status),
		patch.Signature,
		patch.VerificationProof,
		similarity,
		now.UTC().Format(time.RFC3339Nano),
		ttl,
	).Text()
	if err != nil {
		return Record{}, fmt.Errorf("update transfer status: %w", err)
	}
	return decodeScriptResult(res)
}

func (s *RedisStore) Cancel(ctx context.Context, subjectID string, now time.Time) (Record, error) {
	res, err := cancelScript.Run(ctx, s.client, []string{key(subjectID)},
		now.UTC().Format(time.RFC3339Nano),
		int(s.terminalTTL.Seconds()),
	).Text()
	if err != nil {
		return Record{}, fmt.Errorf("cancel transfer: %w", err)
	}
	return decodeScriptResult(res)
}

func decodeScriptResult(res string) (Record, error) {
	switch {
	case res == "not_found":
		return Record{}, sentinel.ErrNotFound
	case strings.HasPrefix(res, "invalid_state:"):
		return Record{}, sentinel.ErrInvalidState
	case strings.HasPrefix(res, "terminal:"):
		return Record{}, sentinel.ErrTerminal
	}

	var record Record
	if err := json.Unmarshal([]byte(res), &record); err != nil {
		return Record{}, fmt.Errorf("decode transfer record: %w", err)
	}
	return record, nil
}
