package access

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/remote"
)

// Rule grants privileges to users on matching objects. Empty patterns
// match anything. Patterns must match the whole value.
type Rule struct {
	User       string      `yaml:"user"`
	Catalog    string      `yaml:"catalog"`
	Schema     string      `yaml:"schema"`
	Table      string      `yaml:"table"`
	Privileges []Privilege `yaml:"privileges"`
}

// RuleFile is the YAML document holding the ordered rules.
type RuleFile struct {
	Rules []Rule `yaml:"rules"`
}

type compiledRule struct {
	user, catalog, schema, table *regexp.Regexp
	tableScoped                  bool
	privileges                   []Privilege
}

// RuleBased checks requests against ordered rules. The first rule matching
// the user and object decides; if none matches, the request is denied.
type RuleBased struct {
	rules  []compiledRule
	logger *zap.Logger
}

var _ AccessControl = (*RuleBased)(nil)

func NewRuleBased(file RuleFile, logger *zap.Logger) (*RuleBased, error) {
	rules := make([]compiledRule, 0, len(file.Rules))
	for i, rule := range file.Rules {
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, compiled)
	}
	return &RuleBased{rules: rules, logger: logger.Named("access")}, nil
}

// ParseRules decodes a YAML rule document.
func ParseRules(data []byte, logger *zap.Logger) (*RuleBased, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse access rules: %w", err)
	}
	return NewRuleBased(file, logger)
}

// LoadRules reads a rule document from a local path or a file://, http(s)://
// or s3:// location.
func LoadRules(ctx context.Context, location string, s3 *remote.S3Config, logger *zap.Logger) (*RuleBased, error) {
	data, err := remote.ReadAll(ctx, location, s3)
	if err != nil {
		return nil, fmt.Errorf("failed to read access rules from %s: %w", location, err)
	}
	return ParseRules(data, logger)
}

func compileRule(rule Rule) (compiledRule, error) {
	var compiled compiledRule
	patterns := []struct {
		field   string
		pattern string
		target  **regexp.Regexp
	}{
		{"user", rule.User, &compiled.user},
		{"catalog", rule.Catalog, &compiled.catalog},
		{"schema", rule.Schema, &compiled.schema},
		{"table", rule.Table, &compiled.table},
	}
	for _, p := range patterns {
		pattern := p.pattern
		if pattern == "" {
			pattern = ".*"
		}
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return compiledRule{}, fmt.Errorf("invalid %s pattern %q: %w", p.field, p.pattern, err)
		}
		*p.target = re
	}

	for _, privilege := range rule.Privileges {
		if !privilege.valid() {
			return compiledRule{}, fmt.Errorf("unknown privilege %q", privilege)
		}
	}
	compiled.tableScoped = rule.Table != ""
	compiled.privileges = rule.Privileges
	return compiled, nil
}

// allowed evaluates the rules. An empty table means a schema-level check,
// which only table-independent rules can decide.
func (r *RuleBased) allowed(user, catalog, schema, table string, privilege Privilege) bool {
	for _, rule := range r.rules {
		if !rule.user.MatchString(user) || !rule.catalog.MatchString(catalog) || !rule.schema.MatchString(schema) {
			continue
		}
		if table == "" && rule.tableScoped {
			continue
		}
		if table != "" && !rule.table.MatchString(table) {
			continue
		}
		return slices.Contains(rule.privileges, privilege) || slices.Contains(rule.privileges, PrivOwnership)
	}
	return false
}

func (r *RuleBased) check(sc SecurityContext, name core.QualifiedObjectName, privilege Privilege, format string) error {
	if r.allowed(sc.Identity.Name, name.Catalog, name.Schema, name.Object, privilege) {
		return nil
	}

	r.logger.Info("Access denied",
		zap.String("user", sc.Identity.Name),
		zap.String("query_id", sc.QueryID),
		zap.String("privilege", string(privilege)),
		zap.String("object", name.String()))
	return core.ErrAccessDenied(format, name)
}

func (r *RuleBased) CheckCanDeleteFromTable(_ context.Context, sc SecurityContext, name core.QualifiedObjectName) error {
	return r.check(sc, name, PrivDelete, "Cannot delete from table %s")
}

func (r *RuleBased) CheckCanInsertIntoTable(_ context.Context, sc SecurityContext, name core.QualifiedObjectName) error {
	return r.check(sc, name, PrivInsert, "Cannot insert into table %s")
}

func (r *RuleBased) CheckCanCreateMaterializedView(_ context.Context, sc SecurityContext, name core.QualifiedObjectName) error {
	return r.check(sc, name, PrivCreate, "Cannot create materialized view %s")
}

func (r *RuleBased) CheckCanDropMaterializedView(_ context.Context, sc SecurityContext, name core.QualifiedObjectName) error {
	return r.check(sc, name, PrivDrop, "Cannot drop materialized view %s")
}

func (r *RuleBased) CheckCanShowMaterializedViews(_ context.Context, sc SecurityContext, catalog, schema string) error {
	if r.allowed(sc.Identity.Name, catalog, schema, "", PrivShow) {
		return nil
	}

	r.logger.Info("Access denied",
		zap.String("user", sc.Identity.Name),
		zap.String("query_id", sc.QueryID),
		zap.String("privilege", string(PrivShow)),
		zap.String("schema", catalog+"."+schema))
	return core.ErrAccessDenied("Cannot show materialized views in %s.%s", catalog, schema)
}
