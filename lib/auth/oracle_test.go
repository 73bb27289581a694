package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDNA = "0123456789abcdef"

func TestComputeAuth(t *testing.T) {
	tests := []struct {
		name     string
		password string
		dna      string
		expected string
	}{
		{name: "admin", password: "admin", dna: testDNA, expected: "5f83997e"},
		{name: "root123", password: "root123", dna: testDNA, expected: "ebde4cc8"},
		{name: "password", password: "password", dna: testDNA, expected: "84d2cc82"},
		{name: "leet variant", password: "p4ss", dna: "020100003b70fee3", expected: "eba54567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeAuth(tt.password, tt.dna))
		})
	}
}

func TestComputeAuthDeterministic(t *testing.T) {
	first := ComputeAuth("hunter2", testDNA)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ComputeAuth("hunter2", testDNA))
	}
}

func TestComputeAuthDNASensitivity(t *testing.T) {
	// The same password on a different board yields a different token.
	assert.NotEqual(t, ComputeAuth("admin", testDNA), ComputeAuth("admin", "fedcba9876543210"))
}

func TestNewOracle(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{name: "valid lowercase", target: "5f83997e"},
		{name: "valid uppercase", target: "5F83997E"},
		{name: "too short", target: "5f83", wantErr: true},
		{name: "too long", target: "5f83997e00", wantErr: true},
		{name: "non-hex", target: "5f83997g", wantErr: true},
		{name: "empty", target: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle, err := NewOracle(tt.target, testDNA)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadTarget)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "5f83997e", oracle.Target())
		})
	}
}

func TestOracleMatch(t *testing.T) {
	oracle, err := NewOracle(ComputeAuth("secret99", testDNA), testDNA)
	require.NoError(t, err)

	assert.True(t, oracle.Match("secret99"))
	assert.False(t, oracle.Match("secret98"))
	assert.False(t, oracle.Match(""))
	assert.False(t, oracle.Match("Secret99"))
}

func TestOracleMatchCaseInsensitiveTarget(t *testing.T) {
	// An uppercase target digest must match the same passwords as the
	// lowercase form.
	upper, err := NewOracle("5F83997E", testDNA)
	require.NoError(t, err)

	assert.True(t, upper.Match("admin"))
}

func TestOracleMatchLongDNA(t *testing.T) {
	// Exercises the heap fallback for identifiers past the stack buffer.
	longDNA := ""
	for i := 0; i < 10; i++ {
		longDNA += testDNA
	}

	oracle, err := NewOracle(ComputeAuth("pw", longDNA), longDNA)
	require.NoError(t, err)

	assert.True(t, oracle.Match("pw"))
	assert.False(t, oracle.Match("pw2"))
}

func TestDeriveCredentials(t *testing.T) {
	creds := DeriveCredentials("admin", testDNA)

	assert.Equal(t, testDNA, creds.DNA)
	assert.Equal(t, "5f83997e", creds.Auth)
	assert.Equal(t, "9f9f5111f7b27a781f1f1ddd", creds.Code)
	assert.Equal(t, "ff0000eeaeb437817e6b413934f4f357", creds.Verify)
	assert.Equal(t, "5f83997e8c6976e5b5410415bde908bd", creds.Cookie)
}

func TestDeriveCredentialsShape(t *testing.T) {
	creds := DeriveCredentials("miner42", "020100003b70fee3")

	assert.Len(t, creds.Auth, TokenLen)
	assert.Len(t, creds.Code, 24)
	assert.Len(t, creds.Verify, 32)
	assert.True(t, len(creds.Cookie) == TokenLen+24)
	assert.Equal(t, "ff0000ee", creds.Verify[:8])
	assert.Equal(t, creds.Auth, creds.Cookie[:TokenLen])
}

func BenchmarkOracleMatch(b *testing.B) {
	oracle, err := NewOracle("5f83997e", testDNA)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		oracle.Match("notthepassword")
	}
}
