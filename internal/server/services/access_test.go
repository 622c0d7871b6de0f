package services

import (
	"testing"

	"github.com/dmitrijs2005/fileshare/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestCanRead(t *testing.T) {
	tests := []struct {
		name      string
		file      models.File
		requester string
		password  string
		want      bool
	}{
		{"private, owner allowed", models.File{Owner: "alice", IsPrivate: true}, "alice", "", true},
		{"private, owner allowed regardless of password", models.File{Owner: "alice", IsPrivate: true, Password: "x"}, "alice", "", true},
		{"private, other denied", models.File{Owner: "alice", IsPrivate: true}, "bob", "", false},
		{"private, other denied even with password", models.File{Owner: "alice", IsPrivate: true, Password: "x"}, "bob", "x", false},
		{"public with password, correct", models.File{Owner: "alice", Password: "x"}, "bob", "x", true},
		{"public with password, wrong", models.File{Owner: "alice", Password: "x"}, "bob", "y", false},
		{"public with password, none supplied", models.File{Owner: "alice", Password: "x"}, "bob", "", false},
		{"public with password, case-sensitive", models.File{Owner: "alice", Password: "Secret"}, "bob", "secret", false},
		{"public without password, anyone", models.File{Owner: "alice"}, "bob", "", true},
		{"public without password, anonymous", models.File{Owner: "alice"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canRead(&tt.file, tt.requester, tt.password))
		})
	}
}

func TestIsOwner(t *testing.T) {
	f := &models.File{Owner: "alice"}
	assert.True(t, isOwner(f, "alice"))
	assert.False(t, isOwner(f, "bob"))
	assert.False(t, isOwner(f, ""))
}
