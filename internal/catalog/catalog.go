package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ItemID is the opaque identifier of a purchasable item. Storefront data has
// historically carried both numeric and string ids, so JSON decoding accepts
// either and normalizes to a string.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("item id %q is not an integer", n.String())
	}
	*id = ItemID(n.String())
	return nil
}

// Item is a single purchasable catalog entry. Price is authoritative and is
// held in minor currency units (cents) to keep all arithmetic integral.
type Item struct {
	ID        ItemID `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	ImagePath string `json:"imagePath,omitempty"`
}

// Group is a named display partition of the catalog ("music", "merch").
type Group struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Catalog is the trusted, server-held item list. It is reconstructed from
// storage on every load and never mutated afterwards.
type Catalog struct {
	Groups []Group
}

// catalogDocument is the stored JSON shape: a map of group name to items.
type catalogDocument map[string][]Item

// UnmarshalJSON decodes the stored group map. Group order in JSON objects is
// not preserved by encoding/json, so groups are sorted by name to keep the
// resulting Catalog (and its flattened index) stable across loads.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var doc catalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	c.Groups = make([]Group, 0, len(names))
	for _, name := range names {
		c.Groups = append(c.Groups, Group{Name: name, Items: doc[name]})
	}
	return nil
}

// MarshalJSON writes the catalog back in its stored shape.
func (c Catalog) MarshalJSON() ([]byte, error) {
	doc := make(catalogDocument, len(c.Groups))
	for _, g := range c.Groups {
		doc[g.Name] = g.Items
	}
	return json.Marshal(doc)
}

// Index returns a lookup from item id to item, flattened across all groups.
// When two items collide on id the first seen wins; group and item order are
// fixed per Catalog, so the winner is deterministic and stable across calls.
func (c *Catalog) Index() map[ItemID]Item {
	idx := make(map[ItemID]Item)
	for _, g := range c.Groups {
		for _, item := range g.Items {
			if _, exists := idx[item.ID]; exists {
				continue
			}
			idx[item.ID] = item
		}
	}
	return idx
}

// Len reports the total number of items across all groups.
func (c *Catalog) Len() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Items)
	}
	return n
}

// parseCatalog decodes and validates a stored catalog document. Malformed
// documents must surface as errors rather than becoming an empty catalog.
func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("malformed catalog document: %w", err)
	}
	for _, g := range c.Groups {
		for _, item := range g.Items {
			if item.ID == "" {
				return nil, fmt.Errorf("group %q contains an item without an id", g.Name)
			}
			if item.Price < 0 {
				return nil, fmt.Errorf("item %s has negative price %d", item.ID, item.Price)
			}
		}
	}
	return &c, nil
}
