package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

// Catalog is an immutable snapshot of the drug knowledge base together with
// the indexes the pipeline needs. A refresh builds a new Catalog and swaps it
// in wholesale; a Catalog is never mutated after construction, so concurrent
// readers need no locking.
type Catalog struct {
	records   []models.DrugRecord
	byName    map[string]*models.DrugRecord
	aliases   []aliasEntry
	populated map[models.AttributeID]bool
	loadedAt  time.Time
}

type aliasEntry struct {
	folded string
	record *models.DrugRecord
}

// NewCatalog indexes the records. Input records are copied by reference only;
// callers must not mutate them afterwards.
func NewCatalog(records []models.DrugRecord) *Catalog {
	c := &Catalog{
		records:   records,
		byName:    make(map[string]*models.DrugRecord, len(records)),
		populated: make(map[models.AttributeID]bool),
		loadedAt:  time.Now(),
	}
	for i := range c.records {
		rec := &c.records[i]
		folded := fold(rec.Name)
		c.byName[folded] = rec
		c.aliases = append(c.aliases, aliasEntry{folded: folded, record: rec})
		for _, alias := range rec.Aliases {
			if a := fold(alias); a != "" && a != folded {
				c.aliases = append(c.aliases, aliasEntry{folded: a, record: rec})
			}
		}
		for id, text := range rec.Attributes {
			if strings.TrimSpace(text) != "" {
				c.populated[id] = true
			}
		}
	}
	// Longer aliases first so that "amoxicillin clavulanate" wins over the
	// bare "amoxicillin" alias during scanning.
	sort.SliceStable(c.aliases, func(i, j int) bool {
		return len(c.aliases[i].folded) > len(c.aliases[j].folded)
	})
	return c
}

// Len returns the number of drug records in the snapshot.
func (c *Catalog) Len() int { return len(c.records) }

// LoadedAt returns when this snapshot was built.
func (c *Catalog) LoadedAt() time.Time { return c.loadedAt }

// Names returns the canonical drug names in alphabetical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.records))
	for i := range c.records {
		names = append(names, c.records[i].Name)
	}
	sort.Strings(names)
	return names
}

// Populated reports whether at least one record has data in the column.
func (c *Catalog) Populated(id models.AttributeID) bool {
	return c.populated[id]
}

// Lookup finds a record by canonical name, case- and accent-insensitive.
func (c *Catalog) Lookup(name string) *models.DrugRecord {
	return c.byName[fold(name)]
}
