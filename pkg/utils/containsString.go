package utils

// ContainsString reports whether slice holds searchTerm exactly.
func ContainsString(slice []string, searchTerm string) bool {
	for _, s := range slice {
		if searchTerm == s {
			return true
		}
	}
	return false
}
