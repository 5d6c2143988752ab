package catalog

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed resources.yaml
var defaultDefinition []byte

// Level is a jurisdiction level of the catalog.
type Level string

const (
	LevelLocal    Level = "local"
	LevelCounty   Level = "county"
	LevelState    Level = "state"
	LevelFederal  Level = "federal"
	LevelAdvocacy Level = "advocacy"
	LevelLegal    Level = "legal"
)

// Levels lists every jurisdiction level in assembly order. Earlier levels win
// when the same URL would otherwise appear twice.
var Levels = []Level{LevelLocal, LevelCounty, LevelState, LevelFederal, LevelAdvocacy, LevelLegal}

// Resource is a single linkable support entity.
type Resource struct {
	Key         string   `yaml:"key" json:"key,omitempty"`
	Name        string   `yaml:"name" json:"name"`
	URL         string   `yaml:"url" json:"url,omitempty"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Phone       string   `yaml:"phone" json:"phone,omitempty"`
	Type        string   `yaml:"type" json:"type,omitempty"`
	Eligibility string   `yaml:"eligibility" json:"eligibility,omitempty"`
	Keywords    []string `yaml:"keywords" json:"-"`
}

// Linkable reports whether the resource renders as a clickable link.
func (r Resource) Linkable() bool {
	return r.URL != ""
}

// MatchesAny reports whether any keyword is a substring of the lowercase
// scan surface.
func (r Resource) MatchesAny(surface string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(surface, kw) {
			return true
		}
	}
	return false
}

// Identity is the exact-entry identity used for state-level deduplication.
func (r Resource) Identity() string {
	return strings.Join([]string{r.Key, r.Name, r.URL, r.Phone}, "\x00")
}

func (r Resource) clone() Resource {
	r.Keywords = slices.Clone(r.Keywords)
	return r
}

// County is the sub-region bundle of a deeply modeled region.
type County struct {
	Code           string     `yaml:"code"`
	Name           string     `yaml:"name"`
	Names          []string   `yaml:"names"`
	Cities         []string   `yaml:"cities"`
	Resource       *Resource  `yaml:"resource"`
	ESD            *Resource  `yaml:"esd"`
	SchoolDistrict *Resource  `yaml:"school_district"`
	LocalAdvocacy  *Resource  `yaml:"local_advocacy"`
	LocalSpecific  []Resource `yaml:"local_specific"`
}

// Region is a state bundle.
type Region struct {
	Code              string     `yaml:"code"`
	Name              string     `yaml:"name"`
	Identifiers       []string   `yaml:"identifiers"`
	EducationDept     *Resource  `yaml:"education_dept"`
	DisabilityRights  *Resource  `yaml:"disability_rights"`
	ParentTraining    *Resource  `yaml:"parent_training"`
	AdvocacyCoalition *Resource  `yaml:"advocacy_coalition"`
	EarlyIntervention *Resource  `yaml:"early_intervention"`
	AutismSupport     *Resource  `yaml:"autism_support"`
	ParentSupport     *Resource  `yaml:"parent_support"`
	Emergency         []Resource `yaml:"emergency"`
	GrantResources    []Resource `yaml:"grant_resources"`
	LegalAid          []Resource `yaml:"legal_aid"`
	Counties          []County   `yaml:"counties"`
}

// CountyResources holds the resources of a resolved county split by level.
type CountyResources struct {
	Local  []Resource
	County []Resource
}

type definition struct {
	LegalTriggers []string   `yaml:"legal_triggers"`
	Emergency     []Resource `yaml:"emergency"`
	Federal       []Resource `yaml:"federal"`
	Advocacy      []Resource `yaml:"advocacy"`
	Legal         []Resource `yaml:"legal"`
	Regions       []Region   `yaml:"regions"`
}

// Catalog is the read-only, keyword-indexed resource database. It is safe for
// concurrent use; every accessor returns copies.
type Catalog struct {
	def    definition
	byCode map[string]int
}

// Default parses the embedded catalog definition.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultDefinition))
}

// LoadFile parses a catalog definition from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open definition")
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML catalog definition.
func Load(r io.Reader) (*Catalog, error) {
	var def definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, eris.Wrap(err, "catalog: decode definition")
	}

	c := &Catalog{def: def, byCode: make(map[string]int, len(def.Regions))}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) normalize() error {
	lowerAll(c.def.LegalTriggers)
	for _, list := range [][]Resource{c.def.Federal, c.def.Advocacy, c.def.Legal, c.def.Emergency} {
		if err := normalizeResources(list); err != nil {
			return err
		}
	}

	for i := range c.def.Regions {
		reg := &c.def.Regions[i]
		reg.Code = strings.ToUpper(strings.TrimSpace(reg.Code))
		if reg.Code == "" {
			return eris.Errorf("catalog: region %d has no code", i)
		}
		if _, dup := c.byCode[reg.Code]; dup {
			return eris.Errorf("catalog: duplicate region %s", reg.Code)
		}
		c.byCode[reg.Code] = i
		lowerAll(reg.Identifiers)

		for _, r := range []*Resource{reg.EducationDept, reg.DisabilityRights, reg.ParentTraining,
			reg.AdvocacyCoalition, reg.EarlyIntervention, reg.AutismSupport, reg.ParentSupport} {
			if r != nil && r.Name == "" {
				return eris.Errorf("catalog: region %s has an unnamed resource", reg.Code)
			}
		}
		for _, list := range [][]Resource{reg.Emergency, reg.GrantResources, reg.LegalAid} {
			if err := normalizeResources(list); err != nil {
				return eris.Wrapf(err, "catalog: region %s", reg.Code)
			}
		}

		for j := range reg.Counties {
			county := &reg.Counties[j]
			county.Code = strings.ToLower(strings.TrimSpace(county.Code))
			if county.Code == "" {
				return eris.Errorf("catalog: region %s county %d has no code", reg.Code, j)
			}
			lowerAll(county.Names)
			lowerAll(county.Cities)
			if err := normalizeResources(county.LocalSpecific); err != nil {
				return eris.Wrapf(err, "catalog: county %s", county.Code)
			}
		}
	}
	return nil
}

func normalizeResources(list []Resource) error {
	for i := range list {
		if strings.TrimSpace(list[i].Name) == "" {
			return eris.Errorf("catalog: resource %q has no name", list[i].Key)
		}
		lowerAll(list[i].Keywords)
	}
	return nil
}

func lowerAll(values []string) {
	for i, v := range values {
		values[i] = strings.ToLower(strings.TrimSpace(v))
	}
}

func cloneAll(list []Resource) []Resource {
	out := make([]Resource, 0, len(list))
	for _, r := range list {
		out = append(out, r.clone())
	}
	return out
}

func appendDefined(out []Resource, rs ...*Resource) []Resource {
	for _, r := range rs {
		if r != nil {
			out = append(out, r.clone())
		}
	}
	return out
}

// FederalResources returns the federal partition.
func (c *Catalog) FederalResources() []Resource { return cloneAll(c.def.Federal) }

// AdvocacyResources returns the advocacy partition.
func (c *Catalog) AdvocacyResources() []Resource { return cloneAll(c.def.Advocacy) }

// LegalResources returns the legal partition.
func (c *Catalog) LegalResources() []Resource { return cloneAll(c.def.Legal) }

// LegalTriggers returns the general legal-intent keywords.
func (c *Catalog) LegalTriggers() []string { return slices.Clone(c.def.LegalTriggers) }

// Regions returns region codes in resolution priority order.
func (c *Catalog) Regions() []string {
	out := make([]string, 0, len(c.def.Regions))
	for _, r := range c.def.Regions {
		out = append(out, r.Code)
	}
	return out
}

func (c *Catalog) region(code string) *Region {
	i, ok := c.byCode[strings.ToUpper(code)]
	if !ok {
		return nil
	}
	return &c.def.Regions[i]
}

// RegionName returns the display name of a region, or "" when unknown.
func (c *Catalog) RegionName(code string) string {
	if r := c.region(code); r != nil {
		return r.Name
	}
	return ""
}

// HasCounties reports whether a region is modeled down to county level.
func (c *Catalog) HasCounties(code string) bool {
	r := c.region(code)
	return r != nil && len(r.Counties) > 0
}

// StateCoreResources returns the region's education department, disability
// rights organization, parent training center and advocacy coalition,
// whichever are defined.
func (c *Catalog) StateCoreResources(code string) []Resource {
	r := c.region(code)
	if r == nil {
		return nil
	}
	return appendDefined(nil, r.EducationDept, r.DisabilityRights, r.ParentTraining, r.AdvocacyCoalition)
}

// EarlyIntervention returns the region's early-intervention resource.
func (c *Catalog) EarlyIntervention(code string) (Resource, bool) {
	return optional(c.region(code), func(r *Region) *Resource { return r.EarlyIntervention })
}

// AutismSupport returns the region's autism-support resource.
func (c *Catalog) AutismSupport(code string) (Resource, bool) {
	return optional(c.region(code), func(r *Region) *Resource { return r.AutismSupport })
}

// ParentSupport returns the region's statewide parent-support group, used when
// no county could be resolved.
func (c *Catalog) ParentSupport(code string) (Resource, bool) {
	return optional(c.region(code), func(r *Region) *Resource { return r.ParentSupport })
}

func optional(r *Region, pick func(*Region) *Resource) (Resource, bool) {
	if r == nil {
		return Resource{}, false
	}
	res := pick(r)
	if res == nil {
		return Resource{}, false
	}
	return res.clone(), true
}

// CountyResources returns the resources of a county within a region.
func (c *Catalog) CountyResources(code, county string) (CountyResources, bool) {
	cty := c.county(code, county)
	if cty == nil {
		return CountyResources{}, false
	}
	out := CountyResources{
		County: appendDefined(nil, cty.Resource, cty.ESD),
		Local:  appendDefined(nil, cty.SchoolDistrict, cty.LocalAdvocacy),
	}
	out.Local = append(out.Local, cloneAll(cty.LocalSpecific)...)
	return out, true
}

// CountyName returns the display name of a county, or "" when unknown.
func (c *Catalog) CountyName(code, county string) string {
	if cty := c.county(code, county); cty != nil {
		return cty.Name
	}
	return ""
}

func (c *Catalog) county(code, county string) *County {
	r := c.region(code)
	if r == nil {
		return nil
	}
	county = strings.ToLower(county)
	for i := range r.Counties {
		if r.Counties[i].Code == county {
			return &r.Counties[i]
		}
	}
	return nil
}

// GrantResources returns the region's funding resources.
func (c *Catalog) GrantResources(code string) []Resource {
	if r := c.region(code); r != nil {
		return cloneAll(r.GrantResources)
	}
	return nil
}

// LegalAid returns the region's legal aid entries.
func (c *Catalog) LegalAid(code string) []Resource {
	if r := c.region(code); r != nil {
		return cloneAll(r.LegalAid)
	}
	return nil
}

// EmergencyContacts returns the region's emergency contacts, falling back to
// the national list when the region is unknown or defines none.
func (c *Catalog) EmergencyContacts(code string) []Resource {
	if r := c.region(code); r != nil && len(r.Emergency) > 0 {
		return cloneAll(r.Emergency)
	}
	return cloneAll(c.def.Emergency)
}

// AllResources returns every resource in the catalog once per URL, in
// definition order. Resources without a URL are skipped.
func (c *Catalog) AllResources() []Resource {
	seen := make(map[string]bool)
	var out []Resource
	add := func(rs ...Resource) {
		for _, r := range rs {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			out = append(out, r.clone())
		}
	}
	add(c.def.Emergency...)
	add(c.def.Federal...)
	add(c.def.Advocacy...)
	add(c.def.Legal...)
	for _, code := range c.Regions() {
		add(c.StateCoreResources(code)...)
		for _, pick := range []func(string) (Resource, bool){c.EarlyIntervention, c.AutismSupport, c.ParentSupport} {
			if r, ok := pick(code); ok {
				add(r)
			}
		}
		add(c.EmergencyContacts(code)...)
		add(c.GrantResources(code)...)
		add(c.LegalAid(code)...)
		for _, cty := range c.region(code).Counties {
			res, _ := c.CountyResources(code, cty.Code)
			add(res.County...)
			add(res.Local...)
		}
	}
	return out
}
