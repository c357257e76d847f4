package storage

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcaf-go/dcaf/mac"
	"github.com/dcaf-go/dcaf/methods"
	"github.com/dcaf-go/dcaf/psk"
	"github.com/dcaf-go/dcaf/storage/model"
	"github.com/dcaf-go/dcaf/wire"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(
		Config{
			Driver:  DriverSQLite,
			DataDir: t.TempDir(),
		},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCamStorage(t *testing.T) {
	cams := newTestStorage(t).CamStorage()

	require.NoError(t, cams.Create(model.CamInfo{Identifier: "10.0.0.2", Name: "cam"}))
	assert.True(t, model.IsAlreadyExists(cams.Create(model.CamInfo{Identifier: "10.0.0.2"})))
	assert.Error(t, cams.Create(model.CamInfo{}))

	c, err := cams.Get("10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, "cam", c.Name)

	require.NoError(t, cams.Update(model.CamInfo{Identifier: "10.0.0.2", Name: "renamed"}))
	assert.True(t, model.IsNotFound(cams.Update(model.CamInfo{Identifier: "missing"})))

	require.NoError(t, cams.Upsert(model.CamInfo{Identifier: "10.0.0.3", Name: "other"}))
	list, err := cams.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "renamed", list[0].Name)

	require.NoError(t, cams.Delete("10.0.0.2"))
	assert.True(t, model.IsNotFound(cams.Delete("10.0.0.2")))
	_, err = cams.Get("10.0.0.2")
	assert.True(t, model.IsNotFound(err))
}

func TestServerStorage(t *testing.T) {
	servers := newTestStorage(t).ServerStorage()
	info := model.ServerInfo{
		Host:         "rs1",
		PreSharedKey: "secret",
		Resources: []model.Resource{
			{Path: "/temp", Methods: methods.Union(methods.GET, methods.PUT)},
		},
	}
	require.NoError(t, servers.Create(info))
	assert.True(t, model.IsAlreadyExists(servers.Create(info)))

	got, err := servers.Get("rs1")
	require.NoError(t, err)
	assert.Equal(t, info.Resources, got.Resources)
	r, ok := got.Resource("/temp")
	assert.True(t, ok)
	assert.Equal(t, methods.Union(methods.GET, methods.PUT), r.Methods)
	_, ok = got.Resource("/other")
	assert.False(t, ok)

	info.SequenceNumber = 1
	info.PreSharedKey = "rotated"
	require.NoError(t, servers.Upsert(info))
	got, err = servers.Get("rs1")
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.PreSharedKey)
	assert.Equal(t, 1, got.SequenceNumber)

	require.NoError(t, servers.Delete("rs1"))
	_, err = servers.Get("rs1")
	assert.True(t, model.IsNotFound(err))
}

func TestAccessRuleStorage(t *testing.T) {
	rules := newTestStorage(t).AccessRuleStorage()
	rule := model.AccessRule{
		ID:            "r1",
		CamIdentifier: "cam1",
		ServerAccessRules: []model.ServerAccessRule{
			{ServerHost: "rs1", Resource: "/temp", Methods: methods.GET},
		},
		ExpirationTime: 1700000000,
	}
	require.NoError(t, rules.Create(rule))
	assert.True(t, model.IsAlreadyExists(rules.Create(rule)))
	require.NoError(t, rules.Create(model.AccessRule{ID: "r2", CamIdentifier: "cam2"}))

	got, err := rules.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, rule.ServerAccessRules, got.ServerAccessRules)
	assert.Equal(t, int64(1700000000), got.ExpirationTime)

	byCam, err := rules.ListByCam("cam1")
	require.NoError(t, err)
	require.Len(t, byCam, 1)

	rule.ServerAccessRules[0].Methods = methods.Union(methods.GET, methods.POST)
	require.NoError(t, rules.Upsert(rule))
	got, err = rules.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, methods.Union(methods.GET, methods.POST), got.ServerAccessRules[0].Methods)

	require.NoError(t, rules.DeleteByCam("cam1"))
	all, err := rules.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "r2", all[0].ID)
	assert.True(t, model.IsNotFound(rules.Delete("r1")))
}

func testTicket(id, cam, server string) model.Ticket {
	return model.Ticket{
		ID:            id,
		CamIdentifier: cam,
		ServerHost:    server,
		Face: wire.Face{
			SAI:       []wire.Authorization{wire.NewAuthorization("coaps://"+server+"/temp", methods.GET)},
			Timestamp: 1000,
			Lifetime:  60,
			MacMethod: mac.Default.String(),
		},
		Verifier: []byte{1, 2, 3},
	}
}

func TestTicketStorage(t *testing.T) {
	tickets := newTestStorage(t).TicketStorage()
	require.NoError(t, tickets.Create(testTicket("t1", "cam1", "rs1")))
	require.NoError(t, tickets.Create(testTicket("t2", "cam1", "rs2")))
	require.NoError(t, tickets.Create(testTicket("t3", "cam2", "rs1")))
	assert.True(t, model.IsAlreadyExists(tickets.Create(testTicket("t1", "cam1", "rs1"))))

	got, err := tickets.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, testTicket("t1", "cam1", "rs1").Face, got.Face)
	assert.Equal(t, []byte{1, 2, 3}, got.Verifier)

	byCam, err := tickets.ListByCam("cam1")
	require.NoError(t, err)
	assert.Len(t, byCam, 2)
	byServer, err := tickets.ListByServer("rs1")
	require.NoError(t, err)
	assert.Len(t, byServer, 2)

	require.NoError(t, tickets.Delete("t1"))
	assert.True(t, model.IsNotFound(tickets.Delete("t1")))
	all, err := tickets.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRevocationStorage(t *testing.T) {
	revocations := newTestStorage(t).RevocationStorage()
	r := &model.RevocationTicket{Ticket: testTicket("t1", "cam1", "rs1")}
	require.NoError(t, revocations.Create(r))
	assert.Equal(t, "t1", r.TicketID)
	assert.Equal(t, "rs1", r.ServerHost)
	assert.True(t, model.IsAlreadyExists(revocations.Create(&model.RevocationTicket{Ticket: testTicket("t1", "cam1", "rs1")})))
	require.NoError(t, revocations.Create(&model.RevocationTicket{Ticket: testTicket("t2", "cam1", "rs1")}))

	pending, err := revocations.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, revocations.MarkDelivered("t1", 1234))
	assert.True(t, model.IsNotFound(revocations.MarkDelivered("missing", 1)))
	pending, err = revocations.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "t2", pending[0].TicketID)

	all, err := revocations.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1234), all[0].DeliveryTime)
	assert.Equal(t, testTicket("t1", "cam1", "rs1").Face, all[0].Ticket.Face)
}

func TestPSKStorage(t *testing.T) {
	var store psk.Store = newTestStorage(t).PSKStorage()

	_, err := store.KeyFor("rs1")
	assert.True(t, errors.Is(err, psk.ErrNotFound))

	require.NoError(t, store.Set("rs1", []byte("secret")))
	require.NoError(t, store.Set("rs1", []byte("rotated")))
	k, err := store.KeyFor("rs1")
	require.NoError(t, err)
	assert.Equal(t, []byte("rotated"), k)

	require.NoError(t, store.Bind("10.0.0.2:5684", "cam1", []byte("camkey")))
	id, err := store.IdentityFor("10.0.0.2:40000")
	require.NoError(t, err)
	assert.Equal(t, "cam1", id)
	_, err = store.IdentityFor("10.0.0.9")
	assert.True(t, errors.Is(err, psk.ErrNotFound))

	require.NoError(t, store.Delete("rs1"))
	require.NoError(t, store.Delete("rs1"))
	_, err = store.KeyFor("rs1")
	assert.True(t, errors.Is(err, psk.ErrNotFound))
}

func TestTicketSettings(t *testing.T) {
	kv := newTestStorage(t).SettingsStorage()

	lifetime, err := GetTicketLifetime(kv)
	require.NoError(t, err)
	assert.Equal(t, DefaultTicketLifetime, lifetime)
	m, err := GetMacMethod(kv)
	require.NoError(t, err)
	assert.Equal(t, mac.Default.String(), m.String())

	require.NoError(t, SetTicketLifetime(kv, 300))
	assert.Error(t, SetTicketLifetime(kv, 0))
	require.NoError(t, SetMacMethod(kv, mac.HMACSHA512))

	lifetime, err = GetTicketLifetime(kv)
	require.NoError(t, err)
	assert.Equal(t, int64(300), lifetime)
	m, err = GetMacMethod(kv)
	require.NoError(t, err)
	assert.Equal(t, mac.HMACSHA512.String(), m.String())

	lifetime, err = GetTicketLifetime(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTicketLifetime, lifetime)
}

func TestSettingsStorage(t *testing.T) {
	settings := newTestStorage(t).SettingsStorage()
	var v []string
	found, err := settings.Load("scope", "key", &v)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, settings.Store("scope", "key", []string{"a", "b"}))
	require.NoError(t, settings.Store("scope", "key", []string{"c"}))
	found, err = settings.Load("scope", "key", &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"c"}, v)

	var wrong int
	_, err = settings.Load("scope", "key", &wrong)
	assert.Error(t, err)

	require.NoError(t, settings.Delete("scope", "key"))
	require.NoError(t, settings.Delete("scope", "key"))
	found, err = settings.Load("scope", "key", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUsersStorage(t *testing.T) {
	users := newTestStorage(t).UsersStorage()
	_, err := users.Create("admin", "pw", "Admin")
	require.NoError(t, err)
	_, err = users.Create("admin", "pw2", "")
	assert.True(t, model.IsAlreadyExists(err))

	n, err := users.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	u, err := users.Authenticate("admin", "pw")
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	_, err = users.Authenticate("admin", "wrong")
	assert.Error(t, err)

	disabled := true
	_, err = users.Update("admin", nil, nil, &disabled)
	require.NoError(t, err)
	_, err = users.Authenticate("admin", "pw")
	assert.Error(t, err)

	require.NoError(t, users.Delete("admin"))
	assert.True(t, model.IsNotFound(users.Delete("admin")))
}

func TestTransactionRollback(t *testing.T) {
	s := newTestStorage(t)
	backends := s.Backends()
	err := backends.InTransaction(
		func(tx model.Backends) error {
			if err := tx.Cams.Create(model.CamInfo{Identifier: "cam1"}); err != nil {
				return err
			}
			return tx.Cams.Create(model.CamInfo{Identifier: "cam1"})
		},
	)
	assert.True(t, model.IsAlreadyExists(err))
	_, err = backends.Cams.Get("cam1")
	assert.True(t, model.IsNotFound(err))

	require.NoError(
		t, backends.InTransaction(
			func(tx model.Backends) error {
				return tx.Cams.Create(model.CamInfo{Identifier: "cam1"})
			},
		),
	)
	_, err = backends.Cams.Get("cam1")
	assert.NoError(t, err)
}

func TestPasswordHash(t *testing.T) {
	params := Argon2idParams{Time: 1, MemoryKiB: 8 * 1024, Parallelism: 1, KeyLen: 16, SaltLen: 8}
	encoded, err := params.hashPassword("secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"))

	h, err := parsePHC(encoded)
	require.NoError(t, err)
	assert.Equal(t, params, h.params)
	assert.True(t, h.matches("secret"))
	assert.False(t, h.matches("Secret"))

	for _, bad := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$AA$AA", "$argon2id$v=16$m=1,t=1,p=1$AA$AA"} {
		_, err = parsePHC(bad)
		assert.Error(t, err, bad)
	}
}

func TestAuthenticateUpgradesHash(t *testing.T) {
	s := newTestStorage(t)
	weak := &UsersStorage{db: s.db, params: Argon2idParams{Time: 1, MemoryKiB: 1024, Parallelism: 1, KeyLen: 16, SaltLen: 8}}
	_, err := weak.Create("admin", "pw", "")
	require.NoError(t, err)

	users := s.UsersStorage()
	_, err = users.Authenticate("admin", "pw")
	require.NoError(t, err)
	var u model.User
	require.NoError(t, s.db.Where("username = ?", "admin").Take(&u).Error)
	h, err := parsePHC(u.PasswordHash)
	require.NoError(t, err)
	assert.Equal(t, users.params.orDefault(), h.params)

	_, err = users.Authenticate("nobody", "pw")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN("/data/sam.db")
	path, query, ok := strings.Cut(dsn, "?")
	require.True(t, ok)
	assert.Equal(t, "/data/sam.db", path)
	assert.Contains(t, query, "_txlock=immediate")
	assert.Contains(t, query, "_busy_timeout=5000")
	assert.Contains(t, query, "_journal_mode=WAL")

	dsn = sqliteDSN("file:sam.db?_busy_timeout=100&cache=shared")
	assert.Contains(t, dsn, "_busy_timeout=100")
	assert.NotContains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "cache=shared")
	assert.Contains(t, dsn, "_txlock=immediate")
}
