package dcaf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/mac"
	"github.com/dcaf-go/dcaf/methods"
	"github.com/dcaf-go/dcaf/storage"
	"github.com/dcaf-go/dcaf/storage/model"
	"github.com/dcaf-go/dcaf/wire"
)

const (
	testCam    = "cam-1"
	testServer = "rs1.example.org"
	testKey    = "server-secret"
	// peer address fiber's App.Test uses for requests
	testPeer = "0.0.0.0"
)

func newTestSAM(t *testing.T) (*SAM, *storage.Storage) {
	t.Helper()
	s, err := storage.NewStorage(storage.Config{Driver: storage.DriverSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	eng := engine.New(s.Backends(), s.PSKStorage())

	require.NoError(t, eng.AddCam(model.CamInfo{Identifier: testCam}))
	require.NoError(t, eng.AddCam(model.CamInfo{Identifier: "127.0.0.1"}))
	require.NoError(
		t, eng.AddServer(
			context.Background(), model.ServerInfo{
				Host:         testServer,
				PreSharedKey: testKey,
				Resources:    []model.Resource{{Path: "/temp", Methods: methods.Union(methods.GET, methods.PUT)}},
			},
		),
	)
	for _, cam := range []string{testCam, "127.0.0.1"} {
		_, err = eng.AddAccessRule(
			model.AccessRule{
				ID:            "rule-" + cam,
				CamIdentifier: cam,
				ServerAccessRules: []model.ServerAccessRule{
					{ServerHost: testServer, Resource: "/temp", Methods: methods.GET},
				},
			},
		)
		require.NoError(t, err)
	}
	require.NoError(t, s.PSKStorage().Bind(testPeer, testCam, []byte("cam-key")))

	sam, err := NewSAM(ServerConf{}, eng, s.PSKStorage(), AdminConf{}, logger.Config{})
	require.NoError(t, err)
	return sam, s
}

func ticketRequest(t *testing.T, m methods.Mask) []byte {
	t.Helper()
	data, err := wire.Marshal(
		wire.TicketRequestMessage{
			SAM: "https://sam.example.org/authorize",
			SAI: []wire.Authorization{wire.NewAuthorization("coaps://"+testServer+"/temp", m)},
		},
	)
	require.NoError(t, err)
	return data
}

func postCBOR(t *testing.T, app *fiber.App, path string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, wire.ContentType)
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func TestAuthorizeEndpointGrants(t *testing.T) {
	sam, _ := newTestSAM(t)
	res, body := postCBOR(t, sam.App(), AuthorizePath, ticketRequest(t, methods.Union(methods.GET, methods.PUT)))
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, wire.ContentType, res.Header.Get(fiber.HeaderContentType))

	grant, err := wire.DecodeTicketGrant(body)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("max-age=%d", grant.Face.Lifetime), res.Header.Get(fiber.HeaderCacheControl))
	assert.Empty(t, grant.Cam)
	assert.Empty(t, grant.Server)
	assert.Equal(t, methods.GET, grant.Face.SAI[0].Methods)
	assert.True(t, mac.Verify([]byte(testKey), grant.Face, grant.Verifier))

	stored, err := sam.GetTicket(grant.ID)
	require.NoError(t, err)
	assert.Equal(t, testCam, stored.CamIdentifier)
}

func TestAuthorizeEndpointNoEntitlement(t *testing.T) {
	sam, _ := newTestSAM(t)
	res, body := postCBOR(t, sam.App(), AuthorizePath, ticketRequest(t, methods.DELETE))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, body)
}

func TestAuthorizeEndpointRejects(t *testing.T) {
	sam, s := newTestSAM(t)

	req := httptest.NewRequest(http.MethodPost, AuthorizePath, bytes.NewReader(ticketRequest(t, methods.GET)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	res, err := sam.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = postCBOR(t, sam.App(), AuthorizePath, []byte{0xff, 0x00})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	require.NoError(t, s.PSKStorage().Delete(testCam))
	res, _ = postCBOR(t, sam.App(), AuthorizePath, ticketRequest(t, methods.GET))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestAuthorizeEndpointMissingKey(t *testing.T) {
	sam, s := newTestSAM(t)
	require.NoError(
		t, s.ServerStorage().Upsert(
			model.ServerInfo{
				Host:      testServer,
				Resources: []model.Resource{{Path: "/temp", Methods: methods.GET}},
			},
		),
	)
	res, _ := postCBOR(t, sam.App(), AuthorizePath, ticketRequest(t, methods.GET))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestCamIdentityFallsBackToHost(t *testing.T) {
	sam, _ := newTestSAM(t)
	assert.Equal(t, testCam, sam.camIdentity(testPeer))
	assert.Equal(t, "10.1.1.1", sam.camIdentity("10.1.1.1:5684"))
	assert.Equal(t, "[::1]", sam.camIdentity("[::1]:443"))
	sam.keys = nil
	assert.Equal(t, testPeer, sam.camIdentity(testPeer))
}

func TestSAMHandlerOverHTTP(t *testing.T) {
	sam, _ := newTestSAM(t)
	srv := httptest.NewServer(sam.HttpHandlerFunc())
	defer srv.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	res, err := client.Post(srv.URL+AuthorizePath, wire.ContentType, bytes.NewReader(ticketRequest(t, methods.GET)))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	grant, err := wire.DecodeTicketGrant(body)
	require.NoError(t, err)

	stored, err := sam.GetTicket(grant.ID)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", stored.CamIdentifier)
}
