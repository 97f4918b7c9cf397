package memory

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/picosh/sites/pkg/db"
)

func newTestDB() *MemoryDB {
	return NewDBMemory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetOrCreateSiteSkipsSeededIDs(t *testing.T) {
	d := newTestDB()
	d.SetupTestData(&db.Site{ID: 5, Domain: "five.example.com"})

	site, created, err := d.GetOrCreateSite("six.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("expected site to be created")
	}
	if site.ID != 6 {
		t.Errorf("expected id 6, got %d", site.ID)
	}
}

func TestFindSiteReturnsCopy(t *testing.T) {
	d := newTestDB()
	d.SetupTestData(&db.Site{ID: 1, Domain: "example.com"})

	site, err := d.FindSite(1)
	if err != nil {
		t.Fatal(err)
	}
	site.Domain = "mutated.example.com"

	again, _ := d.FindSite(1)
	if again.Domain != "example.com" {
		t.Errorf("registry mutated through returned site: %s", again.Domain)
	}
}

func TestUpdateSiteDomainMissing(t *testing.T) {
	d := newTestDB()

	affected, err := d.UpdateSiteDomain(1, "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if affected != 0 {
		t.Errorf("expected 0 rows affected, got %d", affected)
	}
	if len(d.Sites) != 0 {
		t.Errorf("expected empty registry, got %d sites", len(d.Sites))
	}
}

func TestGetOrCreateSiteDuplicateDomains(t *testing.T) {
	d := newTestDB()
	d.SetupTestData(
		&db.Site{ID: 7, Domain: "dup.example.com"},
		&db.Site{ID: 3, Domain: "dup.example.com"},
	)

	_, created, err := d.GetOrCreateSite("dup.example.com")
	if !errors.Is(err, db.ErrMultipleSites) {
		t.Fatalf("expected ErrMultipleSites, got %v", err)
	}
	if created {
		t.Error("expected no insert")
	}
	if len(d.Sites) != 2 {
		t.Errorf("expected 2 sites, got %d", len(d.Sites))
	}

	_, err = d.FindSiteByDomain("dup.example.com")
	if !errors.Is(err, db.ErrMultipleSites) {
		t.Errorf("expected ErrMultipleSites, got %v", err)
	}
}
