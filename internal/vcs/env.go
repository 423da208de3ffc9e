package vcs

// HostVars picks PATH and HOME from lookup so git can find its helpers and
// honor the user's safe.directory settings. No other host variable reaches
// git.
func HostVars(lookup func(string) (string, bool)) []string {
	var out []string
	for _, k := range []string{"PATH", "HOME"} {
		if v, ok := lookup(k); ok {
			out = append(out, k+"="+v)
		}
	}
	return out
}
