package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type fakeAccounts struct {
	existing map[string]string
	ensured  []string
}

func (f *fakeAccounts) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	f.ensured = append(f.ensured, username+"/"+email)
	_, exists := f.existing[username]
	f.existing[username] = password
	return !exists, nil
}

func (f *fakeAccounts) ResetPassword(ctx context.Context, username, password string) error {
	if _, ok := f.existing[username]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
	}
	f.existing[username] = password
	return nil
}

func setup(t *testing.T, password string) (*commandLine, *fakeAccounts, *bytes.Buffer) {
	t.Helper()
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(password), nil }
	accounts := &fakeAccounts{existing: map[string]string{"root": "old-password"}}
	out := &bytes.Buffer{}
	return &commandLine{accounts: accounts, out: out}, accounts, out
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_users(t *testing.T) {
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "adduser: no args", args: []string{"adduser"}, pwd: "secret", wantErr: errHelp},
		{name: "adduser: no email", args: []string{"adduser", "-username", "ops"}, pwd: "secret", wantErr: errHelp},
		{name: "adduser: no password", args: []string{"adduser", "-username", "ops", "-email", "ops@x.com"}, wantErr: errHelp},
		{name: "adduser: bad flag", args: []string{"adduser", "-nope"}, wantErr: errHelp},
		{name: "adduser", args: []string{"adduser", "-username", "ops", "-email", "ops@x.com"}, pwd: "secret"},
		{name: "resetpassword: no args", args: []string{"resetpassword"}, pwd: "secret", wantErr: errHelp},
		{name: "resetpassword: no password", args: []string{"resetpassword", "-username", "root"}, wantErr: errHelp},
		{name: "resetpassword", args: []string{"resetpassword", "-username", "root"}, pwd: "new-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, _ := setup(t, tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func Test_commandLine_adduserReportsOutcome(t *testing.T) {
	cli, accounts, out := setup(t, "secret")

	require.NoError(t, cli.run([]string{"admin", "adduser", "-username", "ops", "-email", "ops@x.com"}))
	assert.Contains(t, out.String(), "admin ops created")
	assert.Equal(t, []string{"ops/ops@x.com"}, accounts.ensured)

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "adduser", "-username", "root", "-email", "root@x.com"}))
	assert.Contains(t, out.String(), "password updated")
	assert.Equal(t, "secret", accounts.existing["root"])
}

func Test_commandLine_resetPasswordUnknownAdmin(t *testing.T) {
	cli, _, _ := setup(t, "secret")

	err := cli.run([]string{"admin", "resetpassword", "-username", "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func Test_commandLine_promptFailure(t *testing.T) {
	cli, _, _ := setup(t, "")
	readPasswordFunc = func(fd int) ([]byte, error) { return nil, errors.New("not a terminal") }

	err := cli.run([]string{"admin", "resetpassword", "-username", "root"})
	assert.EqualError(t, err, "not a terminal")
}

func Test_commandLine_migrate(t *testing.T) {
	var gotCommand string
	var gotArgs []string
	migrateFunc = func(ctx context.Context, db *sql.DB, command string, args ...string) error {
		gotCommand = command
		gotArgs = args
		if command == "lol" {
			return errors.New(`"lol": no such command`)
		}
		return nil
	}

	cli, _, _ := setup(t, "")

	assert.Equal(t, errHelp, cli.run([]string{"admin", "migrate"}))

	require.NoError(t, cli.run([]string{"admin", "migrate", "up"}))
	assert.Equal(t, "up", gotCommand)
	assert.Empty(t, gotArgs)

	require.NoError(t, cli.run([]string{"admin", "migrate", "down-to", "1"}))
	assert.Equal(t, "down-to", gotCommand)
	assert.Equal(t, []string{"1"}, gotArgs)

	assert.EqualError(t, cli.run([]string{"admin", "migrate", "lol"}), `"lol": no such command`)
}
