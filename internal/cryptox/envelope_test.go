package cryptox

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

type testContent struct {
	Subjects   []string `json:"subjects"`
	Categories []string `json:"categories"`
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	in := testContent{
		Subjects:   []string{"<p>first</p>", "<p>second</p>"},
		Categories: []string{"work"},
	}

	env, err := Encrypt(in, "hunter2")
	require.NoError(t, err)
	require.Equal(t, EnvelopeVersion, env.Version)

	var out testContent
	require.NoError(t, Decrypt(env, "hunter2", &out))
	require.Equal(t, in, out)
}

func TestEncrypt_FreshRandomness(t *testing.T) {
	in := testContent{Subjects: []string{"same plaintext"}}

	env1, err := Encrypt(in, "pw")
	require.NoError(t, err)
	env2, err := Encrypt(in, "pw")
	require.NoError(t, err)

	require.NotEqual(t, env1.Salt, env2.Salt)
	require.NotEqual(t, env1.IV, env2.IV)
	require.NotEqual(t, env1.Ciphertext, env2.Ciphertext)

	// Both still decrypt with the same password.
	var out testContent
	require.NoError(t, Decrypt(env1, "pw", &out))
	require.Equal(t, in, out)
	require.NoError(t, Decrypt(env2, "pw", &out))
	require.Equal(t, in, out)
}

func TestEncrypt_FieldEncodings(t *testing.T) {
	env, err := Encrypt(map[string]string{"a": "b"}, "pw")
	require.NoError(t, err)

	salt, err := hex.DecodeString(env.Salt)
	require.NoError(t, err)
	require.Len(t, salt, 16)

	iv, err := hex.DecodeString(env.IV)
	require.NoError(t, err)
	require.Len(t, iv, 16)
}

func TestDecrypt_WrongPasswordFailsUniformly(t *testing.T) {
	env, err := Encrypt(testContent{Subjects: []string{"secret"}}, "right")
	require.NoError(t, err)

	var out testContent
	err = Decrypt(env, "wrong", &out)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_UnsupportedVersion(t *testing.T) {
	env, err := Encrypt(testContent{}, "pw")
	require.NoError(t, err)
	env.Version = 2

	var out testContent
	require.ErrorIs(t, Decrypt(env, "pw", &out), ErrUnsupportedVersion)
}

func TestDecrypt_CorruptedEnvelope(t *testing.T) {
	env, err := Encrypt(testContent{Subjects: []string{"x"}}, "pw")
	require.NoError(t, err)

	var out testContent

	truncated := *env
	truncated.Ciphertext = truncated.Ciphertext[:8]
	require.ErrorIs(t, Decrypt(&truncated, "pw", &out), ErrDecryptionFailed)

	badIV := *env
	badIV.IV = "zzzz"
	require.ErrorIs(t, Decrypt(&badIV, "pw", &out), ErrDecryptionFailed)

	badSalt := *env
	badSalt.Salt = "not-hex"
	require.ErrorIs(t, Decrypt(&badSalt, "pw", &out), ErrDecryptionFailed)

	require.ErrorIs(t, Decrypt(nil, "pw", &out), ErrDecryptionFailed)
}
