package vos

// searchable always succeeds, directory traversal isn't permission checked.
func searchable(path string) error {
	return nil
}
