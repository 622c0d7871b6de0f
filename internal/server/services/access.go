package services

import (
	"crypto/subtle"

	"github.com/dmitrijs2005/fileshare/internal/server/models"
)

// canRead is the access gate shared by the read paths. A private record is
// readable by its owner only, regardless of password. A public record with a
// password is readable by anyone supplying the exact (case-sensitive)
// password. Everything else is readable by anyone, including anonymous
// requesters.
func canRead(file *models.File, requester, password string) bool {
	if file.IsPrivate && file.Owner != requester {
		return false
	}
	if !file.IsPrivate && file.Password != "" {
		return subtle.ConstantTimeCompare([]byte(file.Password), []byte(password)) == 1
	}
	return true
}

// isOwner gates write operations: delete and update-info require ownership
// unconditionally, regardless of visibility or password.
func isOwner(file *models.File, requester string) bool {
	return file.Owner == requester
}
