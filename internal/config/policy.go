package config

// PolicyConfig configures the policy gate. The three rule lists mirror the
// three checks the gate performs: destructive-verb matching, resource
// whitelisting, and sensitive-path detection.
type PolicyConfig struct {
	// DestructiveCommands are exact command names or two-word command
	// prefixes that are always treated as destructive (e.g. "rm -rf",
	// "git push --force" is covered by "git push" plus a force flag).
	DestructiveCommands []string `yaml:"destructive_commands"`

	// PotentiallyDestructive are command names that are only destructive
	// when combined with a force/recursive flag or a schema keyword.
	PotentiallyDestructive []string `yaml:"potentially_destructive"`

	// ForceFlags are flags that escalate a potentially destructive command.
	ForceFlags []string `yaml:"force_flags"`

	// SchemaKeywords are substrings that indicate schema destruction
	// (database tools).
	SchemaKeywords []string `yaml:"schema_keywords"`

	// WhitelistPrefixes are allowed name prefixes for restricted resources.
	WhitelistPrefixes []string `yaml:"whitelist_prefixes"`

	// SensitivePaths are substrings of normalized paths that must never be
	// touched by a generated patch.
	SensitivePaths []string `yaml:"sensitive_paths"`
}

// DefaultPolicyConfig returns the built-in policy rules.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		DestructiveCommands: []string{
			"rm -rf",
			"rm -fr",
			"mkfs",
			"dd",
			"shred",
			"git push --force",
			"git reset --hard",
			"drop database",
			"truncate table",
		},
		PotentiallyDestructive: []string{
			"rm", "rmdir", "del",
			"git", "svn",
			"docker", "podman", "kubectl",
			"psql", "mysql", "sqlite3", "mongo",
		},
		ForceFlags: []string{
			"-rf", "-fr", "--force", "-f", "--hard", "--no-preserve-root",
			"prune", "purge",
		},
		SchemaKeywords: []string{
			"drop table", "drop database", "drop schema", "truncate",
		},
		WhitelistPrefixes: []string{
			"remedy-", "sandbox-", "scratch-",
		},
		SensitivePaths: []string{
			".git/", "node_modules/", "vendor/",
			".env", "credentials", "id_rsa", "secrets",
		},
	}
}
