package wizard_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symonectl/internal/api"
	"symonectl/internal/apitest"
	"symonectl/internal/data"
	"symonectl/internal/logging"
	"symonectl/internal/query"
	"symonectl/internal/session"
	"symonectl/internal/state"
	"symonectl/internal/wizard"
)

func newBackend(t *testing.T) (*data.Service, *apitest.Backend) {
	t.Helper()
	be := apitest.New(t)
	sess := session.NewManager(state.NewMemory(), session.RoleUser, logging.Discard())
	require.NoError(t, sess.SetSession(context.Background(), apitest.UserToken, session.Profile{"id": "u-1"}))
	return data.New(api.NewClient(be.URL(), sess, logging.Discard()), query.New(), logging.Discard()), be
}

var github = api.MarketplaceMCP{Name: "GitHub", Slug: "github", RequiredSecrets: []string{"GITHUB_TOKEN", "GITHUB_ORG"}}

func TestInstallWithoutSecretsSkipsConfigure(t *testing.T) {
	svc, _ := newBackend(t)
	w, info := wizard.NewInstall(svc, api.MarketplaceMCP{Name: "Web Scraper", Slug: "web-scraper"})

	step, err := info.Install(context.Background())
	require.NoError(t, err)
	done, ok := step.(*wizard.Success)
	require.True(t, ok)
	assert.Equal(t, done.Server.ID, done.Connection.ServerID)
	assert.Equal(t, "web-scraper", done.Server.Type)
	assert.Equal(t, []wizard.State{wizard.StateInfo, wizard.StateVerify, wizard.StateSuccess}, w.Trail())
	assert.NotContains(t, w.Trail(), wizard.StateConfigure)
}

func TestInstallWithSecrets(t *testing.T) {
	svc, be := newBackend(t)
	ctx := context.Background()
	w, info := wizard.NewInstall(svc, github)

	step, err := info.Install(ctx)
	require.NoError(t, err)
	cfg, ok := step.(*wizard.Configure)
	require.True(t, ok)
	assert.Equal(t, []string{"GITHUB_TOKEN", "GITHUB_ORG"}, cfg.Required())

	cfg.Set("GITHUB_TOKEN", "ghp_x")
	before := len(be.Calls())
	step, err = cfg.Submit(ctx)
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))
	assert.Same(t, cfg, step)
	assert.Len(t, be.Calls(), before, "no call while a secret is blank")

	cfg.Set("GITHUB_ORG", "acme")
	step, err = cfg.Submit(ctx)
	require.NoError(t, err)
	require.IsType(t, &wizard.Success{}, step)

	_, secrets := be.Snapshot()
	require.Len(t, secrets, 2)
	assert.Equal(t, []string{w.Server().ID}, secrets[0].ServerIDs)
	assert.Equal(t, 1, be.Count(http.MethodPost, "/servers/"+w.Server().ID+"/activate"))
	assert.Equal(t, []wizard.State{wizard.StateInfo, wizard.StateConfigure, wizard.StateVerify, wizard.StateSuccess}, w.Trail())
}

func TestSecretFailureReturnsToConfigure(t *testing.T) {
	svc, be := newBackend(t)
	ctx := context.Background()
	w, info := wizard.NewInstall(svc, github)
	step, err := info.Install(ctx)
	require.NoError(t, err)
	cfg := step.(*wizard.Configure)
	cfg.Set("GITHUB_TOKEN", "ghp_x")
	cfg.Set("GITHUB_ORG", "acme")

	// the second secret collides
	be.Edit(func(b *apitest.Backend) { b.Secrets = append(b.Secrets, api.Secret{Name: "GITHUB_ORG"}) })
	step, err = cfg.Submit(ctx)
	require.Error(t, err)
	back, ok := step.(*wizard.Configure)
	require.True(t, ok)
	assert.Equal(t, "ghp_x", back.Value("GITHUB_TOKEN"))
	assert.Equal(t, "acme", back.Value("GITHUB_ORG"))
	assert.Error(t, back.Err)
	assert.Equal(t, 0, be.Count(http.MethodPost, "/servers/"+w.Server().ID+"/activate"), "first failure stops the sequence")

	// fix the collision and resubmit; the first secret is not sent twice
	be.Edit(func(b *apitest.Backend) { b.Secrets = b.Secrets[1:] })
	be.ResetCalls()
	step, err = back.Submit(ctx)
	require.NoError(t, err)
	require.IsType(t, &wizard.Success{}, step)
	assert.Equal(t, 1, be.Count(http.MethodPost, "/auth/dashboard/secrets"))
	assert.Equal(t, []wizard.State{
		wizard.StateInfo, wizard.StateConfigure, wizard.StateVerify, wizard.StateConfigure, wizard.StateVerify, wizard.StateSuccess,
	}, w.Trail())
}

func TestActivationFailureReturnsToConfigure(t *testing.T) {
	svc, be := newBackend(t)
	ctx := context.Background()
	w, info := wizard.NewInstall(svc, api.MarketplaceMCP{Name: "Stripe", Slug: "stripe", RequiredSecrets: []string{"STRIPE_KEY"}})
	step, err := info.Install(ctx)
	require.NoError(t, err)
	cfg := step.(*wizard.Configure)
	cfg.Set("STRIPE_KEY", "sk")

	be.Fail(http.MethodPost, "/servers/"+w.Server().ID+"/activate", http.StatusBadGateway, "Failed to activate server")
	step, err = cfg.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, wizard.StateConfigure, step.State())
	assert.Equal(t, "sk", step.(*wizard.Configure).Value("STRIPE_KEY"))
}

func TestConnectionInfoFailureIsPartialSuccess(t *testing.T) {
	svc, be := newBackend(t)
	ctx := context.Background()
	w, info := wizard.NewInstall(svc, api.MarketplaceMCP{Name: "Notion", Slug: "notion", RequiredSecrets: []string{"NOTION_KEY"}})
	step, err := info.Install(ctx)
	require.NoError(t, err)
	cfg := step.(*wizard.Configure)
	cfg.Set("NOTION_KEY", "secret_x")

	path := "/auth/dashboard/servers/" + w.Server().ID + "/connection-info"
	be.Fail(http.MethodGet, path, http.StatusInternalServerError, "boom")
	step, err = cfg.Submit(ctx)
	require.Error(t, err)
	v, ok := step.(*wizard.Verify)
	require.True(t, ok)
	assert.Error(t, v.Err)

	servers, _ := be.Snapshot()
	require.Len(t, servers, 1)
	assert.Equal(t, api.StatusRunning, servers[0].Status, "server stays active")

	be.Clear(http.MethodGet, path)
	be.ResetCalls()
	step, err = v.Retry(ctx)
	require.NoError(t, err)
	require.IsType(t, &wizard.Success{}, step)
	assert.Equal(t, []string{"GET " + path}, be.Calls(), "retry only refetches connection info")
}

func TestInstallDeployFailureStaysOnInfo(t *testing.T) {
	svc, be := newBackend(t)
	be.Fail(http.MethodPost, "/auth/dashboard/servers", http.StatusPaymentRequired, "Server limit reached")
	w, info := wizard.NewInstall(svc, github)
	step, err := info.Install(context.Background())
	require.Error(t, err)
	assert.Same(t, info, step)
	assert.Equal(t, []wizard.State{wizard.StateInfo}, w.Trail())
}

func TestDefaultServerName(t *testing.T) {
	gh, err := wizard.FindTemplate("GitHub")
	require.NoError(t, err)
	assert.Equal(t, "github", wizard.DefaultServerName(gh))

	gcs, err := wizard.FindTemplate("google-cloud-storage")
	require.NoError(t, err)
	assert.Equal(t, "google-cloud-storage", wizard.DefaultServerName(gcs))

	_, err = wizard.FindTemplate("Fax")
	assert.Error(t, err)
}

func TestDeployBlankNameUsesTemplate(t *testing.T) {
	svc, _ := newBackend(t)
	gh, err := wizard.FindTemplate("GitHub")
	require.NoError(t, err)

	srv, info, err := wizard.Deploy(context.Background(), svc, wizard.DeployForm{Template: gh, Name: "  "})
	require.NoError(t, err)
	assert.Equal(t, "github", srv.Name)
	assert.Equal(t, "api", srv.Type)
	assert.Equal(t, wizard.DefaultRegion, srv.Region)
	require.NotNil(t, info)

	list, err := svc.Servers(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeployRequiresTemplate(t *testing.T) {
	svc, be := newBackend(t)
	_, _, err := wizard.Deploy(context.Background(), svc, wizard.DeployForm{Name: "x"})
	assert.True(t, api.IsValidation(err))
	assert.Empty(t, be.Calls())
}
