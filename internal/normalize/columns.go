package normalize

import (
	"strings"

	"github.com/sells-group/pump-selector/internal/model"
)

// Role is the meaning a column is bound to.
type Role string

// Identity roles shared by combination and spares datasets.
const (
	RoleUnknown Role = ""
	RoleModel   Role = "model"
	RoleHP      Role = "hp"
	RoleSKU     Role = "sku"
)

// Spares roles.
const (
	RoleCasing   Role = "casing"
	RoleImpeller Role = "impeller"
	RoleSeal     Role = "seal"
	RoleAdaptor  Role = "adaptor"
	RoleNRV      Role = "nrv"
	RoleCategory Role = "category"
	RolePrice    Role = "price"
)

// FieldRole returns the role for a canonical selection field.
func FieldRole(f model.Field) Role {
	return Role(f)
}

// Rule describes how a column name is recognised for a role. Names are
// compared after Header compaction. A column matches if it equals an alias,
// or if it contains every substring of any one group and none of Excludes.
type Rule struct {
	Role     Role
	Aliases  []string
	Contains [][]string
	Excludes []string
}

func (r Rule) exact(h string) bool {
	for _, a := range r.Aliases {
		if h == a {
			return true
		}
	}
	return false
}

func (r Rule) partial(h string) bool {
	if h == "" || ContainsAny(h, r.Excludes...) {
		return false
	}
	for _, group := range r.Contains {
		ok := len(group) > 0
		for _, sub := range group {
			if !strings.Contains(h, sub) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Matches reports whether a raw column name satisfies the rule.
func (r Rule) Matches(column string) bool {
	h := Header(column)
	return r.exact(h) || r.partial(h)
}

// ModelRule recognises the model-name column of a combination dataset.
var ModelRule = Rule{
	Role:     RoleModel,
	Aliases:  []string{"model", "modelname", "pumpmodel", "recommendedmodel"},
	Contains: [][]string{{"model"}},
	Excludes: []string{"number", "combination"},
}

// SelectionRules lists the combination dataset column rules in binding
// priority order.
var SelectionRules = []Rule{
	ModelRule,
	{Role: RoleHP, Aliases: []string{"hp", "horsepower", "pumphp", "motorhp"}, Contains: [][]string{{"horsepower"}, {"hp"}}},
	{Role: RoleSKU, Aliases: []string{"sku", "skucode"}, Contains: [][]string{{"sku"}}},
	{Role: FieldRole(model.FieldPurpose), Aliases: []string{"purpose"}, Contains: [][]string{{"purpose"}}},
	{Role: FieldRole(model.FieldLocation), Aliases: []string{"location"}, Contains: [][]string{{"location"}}},
	{Role: FieldRole(model.FieldSource), Aliases: []string{"source", "watersource"}, Contains: [][]string{{"source"}}},
	{Role: FieldRole(model.FieldWaterLevel), Aliases: []string{"waterlevel"}, Contains: [][]string{{"waterlevel"}, {"water", "level"}}},
	{Role: FieldRole(model.FieldDelivery), Aliases: []string{"delivery"}, Contains: [][]string{{"delivery"}}},
	{Role: FieldRole(model.FieldCustomHeight), Aliases: []string{"customheight"}, Contains: [][]string{{"customheight"}, {"height"}}},
	{Role: FieldRole(model.FieldUsage), Aliases: []string{"usage"}, Contains: [][]string{{"usage"}}},
	{Role: FieldRole(model.FieldPhase), Aliases: []string{"phase"}, Contains: [][]string{{"phase"}}},
	{Role: FieldRole(model.FieldQuality), Aliases: []string{"quality"}, Contains: [][]string{{"quality"}}},
}

// SparesRules lists the spares dataset column rules in binding priority order.
var SparesRules = []Rule{
	{Role: RoleCategory, Aliases: []string{"category", "pumptype", "pumpcategory"}, Contains: [][]string{{"category"}, {"pump", "type"}}},
	{Role: RoleModel, Aliases: []string{"model", "modelname"}, Contains: [][]string{{"model"}}},
	{Role: RoleCasing, Aliases: []string{"casing"}, Contains: [][]string{{"casing"}}},
	{Role: RoleImpeller, Aliases: []string{"impeller"}, Contains: [][]string{{"impeller"}}},
	{Role: RoleSeal, Aliases: []string{"mechsea", "mechseal", "mechanicalseal", "seal"}, Contains: [][]string{{"mech"}, {"seal"}}},
	{Role: RoleAdaptor, Aliases: []string{"adaptor", "adapter"}, Contains: [][]string{{"adaptor"}, {"adapter"}}},
	{Role: RoleNRV, Aliases: []string{"nrv", "nonreturnvalve"}, Contains: [][]string{{"nrv"}, {"valve", "non"}}},
}

// PriceRule matches every price column of a spares dataset.
var PriceRule = Rule{Role: RolePrice, Contains: [][]string{{"price"}, {"cost"}}}

// Binding records which column each role is bound to for one dataset load.
type Binding struct {
	headers []string
	columns map[Role]int
	bound   map[int]Role
}

// Resolve binds roles to columns. An exact alias pass runs before a
// substring pass; within each pass roles bind in rule order and take the
// first free column in header order. Each column binds to at most one role.
func Resolve(headers []string, rules []Rule) Binding {
	b := Binding{
		headers: headers,
		columns: make(map[Role]int, len(rules)),
		bound:   make(map[int]Role, len(rules)),
	}
	compact := make([]string, len(headers))
	for i, h := range headers {
		compact[i] = Header(h)
	}

	passes := []func(Rule, string) bool{
		func(r Rule, h string) bool { return r.exact(h) },
		func(r Rule, h string) bool { return r.partial(h) },
	}
	for _, match := range passes {
		for _, r := range rules {
			if _, ok := b.columns[r.Role]; ok {
				continue
			}
			for i, h := range compact {
				if _, taken := b.bound[i]; taken {
					continue
				}
				if match(r, h) {
					b.columns[r.Role] = i
					b.bound[i] = r.Role
					break
				}
			}
		}
	}
	return b
}

// Column returns the index of the column bound to role.
func (b Binding) Column(r Role) (int, bool) {
	i, ok := b.columns[r]
	return i, ok
}

// Header returns the raw header bound to role, or "".
func (b Binding) Header(r Role) string {
	if i, ok := b.columns[r]; ok {
		return b.headers[i]
	}
	return ""
}

// Has reports whether role is bound.
func (b Binding) Has(r Role) bool {
	_, ok := b.columns[r]
	return ok
}

// RoleOf returns the role bound to the column at index i.
func (b Binding) RoleOf(i int) Role {
	return b.bound[i]
}

// Missing returns the roles from want that have no column.
func (b Binding) Missing(want ...Role) []Role {
	var out []Role
	for _, r := range want {
		if !b.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// FieldCount returns how many canonical selection fields are bound.
func (b Binding) FieldCount() int {
	n := 0
	for _, f := range model.SelectionFields {
		if b.Has(FieldRole(f)) {
			n++
		}
	}
	return n
}

// Headers returns the headers the binding was resolved against.
func (b Binding) Headers() []string {
	return b.headers
}

// MatchAll returns every header index matching rule, in header order.
func MatchAll(headers []string, rule Rule) []int {
	var out []int
	for i, h := range headers {
		if rule.Matches(h) {
			out = append(out, i)
		}
	}
	return out
}
