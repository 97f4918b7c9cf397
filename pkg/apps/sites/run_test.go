package sites

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/picosh/sites/pkg/db"
	"github.com/picosh/sites/pkg/db/memory"
	"github.com/picosh/sites/pkg/settings"
	"github.com/picosh/sites/pkg/shared"
)

// recordingOpener hands out the same in-memory registry on every open and
// counts how often the registry was reached.
type recordingOpener struct {
	db    *memory.MemoryDB
	opens int
	urls  []string
}

func (r *recordingOpener) Open(dbURL, projectDir string, logger *slog.Logger) (db.SiteDB, error) {
	r.opens++
	r.urls = append(r.urls, dbURL)
	return r.db, nil
}

func setupProject(t *testing.T, settingsText string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, shared.DefaultSettingsModule), []byte(settingsText), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv(shared.ProjectDirEnv, dir)
	t.Setenv(shared.DatabaseURLEnv, "")
	t.Setenv(shared.PushgatewayEnv, "")
	t.Setenv(shared.SettingsModuleEnv, "")
	os.Unsetenv(shared.SettingsModuleEnv)
	return dir
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestSetDomainFromEnvUpdate(t *testing.T) {
	setupProject(t, "site_id: 1\ndatabase_url: memory://\n")
	t.Setenv(shared.WebsiteDomainEnv, "new.example.com")

	opener := &recordingOpener{db: memory.NewDBMemory(testLogger)}
	opener.db.SetupTestData(&db.Site{ID: 1, Domain: "old.example.com"})

	res, err := SetDomainFromEnv(opener.Open)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 1 || res.Created {
		t.Errorf("unexpected result %+v", res)
	}

	site, err := opener.db.FindSite(1)
	if err != nil {
		t.Fatal(err)
	}
	if site.Domain != "new.example.com" {
		t.Errorf("expected new.example.com, got %s", site.Domain)
	}
}

func TestSetDomainFromEnvTrimsDomain(t *testing.T) {
	setupProject(t, "database_url: memory://\n")
	t.Setenv(shared.WebsiteDomainEnv, "  fresh.example.com\n")

	opener := &recordingOpener{db: memory.NewDBMemory(testLogger)}
	res, err := SetDomainFromEnv(opener.Open)
	if err != nil {
		t.Fatal(err)
	}
	if res.Site.Domain != "fresh.example.com" || !res.Created {
		t.Errorf("unexpected result %+v", res.Site)
	}
}

func TestSetDomainFromEnvDatabaseOverride(t *testing.T) {
	setupProject(t, "database_url: postgres://from-file\n")
	t.Setenv(shared.DatabaseURLEnv, "memory://")
	t.Setenv(shared.WebsiteDomainEnv, "www.example.com")

	opener := &recordingOpener{db: memory.NewDBMemory(testLogger)}
	if _, err := SetDomainFromEnv(opener.Open); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"memory://"}, opener.urls); diff != "" {
		t.Error(diff)
	}
}

func TestSetDomainFromEnvMissingVariables(t *testing.T) {
	fixtures := []struct {
		name  string
		unset []string
		keys  []string
	}{
		{name: "website-domain", unset: []string{shared.WebsiteDomainEnv}, keys: []string{shared.WebsiteDomainEnv}},
		{name: "project-dir", unset: []string{shared.ProjectDirEnv}, keys: []string{shared.ProjectDirEnv}},
		{
			name:  "both",
			unset: []string{shared.ProjectDirEnv, shared.WebsiteDomainEnv},
			keys:  []string{shared.ProjectDirEnv, shared.WebsiteDomainEnv},
		},
	}

	for _, fixture := range fixtures {
		t.Run(fixture.name, func(t *testing.T) {
			setupProject(t, "database_url: memory://\n")
			t.Setenv(shared.WebsiteDomainEnv, "www.example.com")
			for _, key := range fixture.unset {
				unsetEnv(t, key)
			}

			opener := &recordingOpener{db: memory.NewDBMemory(testLogger)}
			opener.db.SetupTestData(&db.Site{ID: 1, Domain: "old.example.com"})

			_, err := SetDomainFromEnv(opener.Open)
			if !errors.Is(err, shared.ErrMissingEnv) {
				t.Fatalf("expected ErrMissingEnv, got %v", err)
			}
			for _, key := range fixture.keys {
				if !strings.Contains(err.Error(), key) {
					t.Errorf("expected error to name %s, got %v", key, err)
				}
			}
			if opener.opens != 0 {
				t.Errorf("registry opened %d times", opener.opens)
			}
			site, _ := opener.db.FindSite(1)
			if site.Domain != "old.example.com" {
				t.Errorf("registry changed: %s", site.Domain)
			}
		})
	}
}

func TestSetDomainFromEnvInvalidDomain(t *testing.T) {
	setupProject(t, "database_url: memory://\n")
	t.Setenv(shared.WebsiteDomainEnv, "   ")

	opener := &recordingOpener{db: memory.NewDBMemory(testLogger)}
	_, err := SetDomainFromEnv(opener.Open)
	if !errors.Is(err, shared.ErrInvalidEnv) {
		t.Fatalf("expected ErrInvalidEnv, got %v", err)
	}
	if !errors.Is(err, db.ErrDomainEmpty) {
		t.Errorf("expected ErrDomainEmpty, got %v", err)
	}
	if opener.opens != 0 {
		t.Errorf("registry opened %d times", opener.opens)
	}
}

func TestSetDomainFromEnvSettingsMissing(t *testing.T) {
	setupProject(t, "database_url: memory://\n")
	t.Setenv(shared.SettingsModuleEnv, "nope/settings.yml")
	t.Setenv(shared.WebsiteDomainEnv, "www.example.com")

	opener := &recordingOpener{db: memory.NewDBMemory(testLogger)}
	_, err := SetDomainFromEnv(opener.Open)
	if !errors.Is(err, settings.ErrProviderLoad) {
		t.Fatalf("expected ErrProviderLoad, got %v", err)
	}
	if opener.opens != 0 {
		t.Errorf("registry opened %d times", opener.opens)
	}
}

func TestSetDomainFromEnvDomainOwnedByOtherSite(t *testing.T) {
	setupProject(t, "site_id: 2\ndatabase_url: memory://\n")
	t.Setenv(shared.WebsiteDomainEnv, "www.example.com")

	opener := &recordingOpener{db: memory.NewDBMemory(testLogger)}
	opener.db.SetupTestData(
		&db.Site{ID: 1, Domain: "www.example.com"},
		&db.Site{ID: 2, Domain: "old.example.com"},
	)

	res, err := SetDomainFromEnv(opener.Open)
	if !errors.Is(err, ErrRegistry) {
		t.Fatalf("expected ErrRegistry, got res=%+v err=%v", res, err)
	}
	if !errors.Is(err, db.ErrMultipleSites) {
		t.Errorf("expected ErrMultipleSites, got %v", err)
	}

	site, err := opener.db.FindSite(2)
	if err != nil {
		t.Fatal(err)
	}
	if site.Domain != "www.example.com" {
		t.Errorf("expected current site to be updated, got %s", site.Domain)
	}
}

func TestSetDomainFromEnvSqlite(t *testing.T) {
	dir := setupProject(t, "site_id: 1\ndatabase_url: sqlite://data/sites.db\n")
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(shared.WebsiteDomainEnv, "fresh.example.com")

	first, err := SetDomainFromEnv(OpenDB)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Created || first.Updated != 0 {
		t.Errorf("unexpected first result %+v", first)
	}

	second, err := SetDomainFromEnv(OpenDB)
	if err != nil {
		t.Fatal(err)
	}
	if second.Created {
		t.Error("second run must not create a site")
	}
	if second.Site.ID != first.Site.ID {
		t.Errorf("expected id %d, got %d", first.Site.ID, second.Site.ID)
	}

	var out bytes.Buffer
	if err := ListSitesFromEnv(OpenDB, &out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one site, got:\n%s", out.String())
	}
	if !strings.Contains(lines[1], "fresh.example.com") || !strings.HasSuffix(lines[1], "*") {
		t.Errorf("unexpected listing line %q", lines[1])
	}
}
