package chiefconfig

import "os"

// expandEnv expands ${VAR} / $VAR references in raw YAML bytes before
// parsing, the same shell-style expansion the teacher's
// pkg/config.ExpandEnv applies to tarsy.yaml. Missing variables expand
// to empty string; validation catches required fields left empty.
func expandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
