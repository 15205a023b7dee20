package driver

// IsDuplicateKey reports whether err is a unique or primary key violation raised by any supported driver
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return isMySQLDuplicate(err) || isPostgresDuplicate(err) || isSQLiteDuplicate(err)
}
