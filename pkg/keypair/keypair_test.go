package keypair

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"arcula/pkg/crypto_util"
)

func TestFromSeedDeterministic(t *testing.T) {
	seed := crypto_util.SHA3_512Half([]byte("test_ecdsa_keygen"))

	k1, err := FromSeed(seed)
	require.NoError(t, err)
	k2, err := FromSeed(seed)
	require.NoError(t, err)

	require.True(t, k1.PublicKey().IsEqual(k2.PublicKey()))
	require.True(t, k1.Secret().Equal(k2.Secret()))
	require.Len(t, k1.SerializePublic(), PublicKeyLen)

	k3, err := FromSeed(append(seed, 0))
	require.NoError(t, err)
	require.False(t, k1.PublicKey().IsEqual(k3.PublicKey()))

	_, err = FromSeed(nil)
	require.ErrorIs(t, err, ErrEmptySeed)
}

func TestFromBytes(t *testing.T) {
	_, err := FromBytes(make([]byte, SecretLen))
	require.ErrorIs(t, err, ErrInvalidSecret)

	// 曲线阶 N 本身溢出
	order := btcec.S256().N.FillBytes(make([]byte, SecretLen))
	_, err = FromBytes(order)
	require.ErrorIs(t, err, ErrInvalidSecret)

	_, err = FromBytes([]byte{1, 2, 3})
	require.Error(t, err)

	one := make([]byte, SecretLen)
	one[SecretLen-1] = 1
	kp, err := FromBytes(one)
	require.NoError(t, err)

	gx := btcec.S256().Gx
	require.Equal(t, 0, kp.PublicKey().X().Cmp(gx))
}

func TestSignVerify(t *testing.T) {
	kp, err := FromSeed([]byte("test_ecdsa_sign_k"))
	require.NoError(t, err)
	msg := []byte("test_ecdsa_sign_m")

	for _, scheme := range []Scheme{SchemeECDSA, SchemeSchnorr} {
		t.Run(scheme.String(), func(t *testing.T) {
			sig, err := kp.Sign(scheme, msg)
			require.NoError(t, err)
			require.True(t, Verify(scheme, kp.PublicKey(), msg, sig))

			// 确定性签名
			again, err := kp.Sign(scheme, msg)
			require.NoError(t, err)
			require.Equal(t, sig, again)

			require.False(t, Verify(scheme, kp.PublicKey(), []byte("other"), sig))

			tampered := bytes.Clone(sig)
			tampered[len(tampered)-1] ^= 0x01
			require.False(t, Verify(scheme, kp.PublicKey(), msg, tampered))

			other, err := FromSeed([]byte("other"))
			require.NoError(t, err)
			require.False(t, Verify(scheme, other.PublicKey(), msg, sig))
		})
	}

	require.False(t, Verify(SchemeECDSA, nil, msg, nil))
	require.False(t, Verify(Scheme(9), kp.PublicKey(), msg, nil))
}

func TestECDSAIsCanonicalDER(t *testing.T) {
	kp, err := FromSeed([]byte("der"))
	require.NoError(t, err)

	sig, err := kp.Sign(SchemeECDSA, []byte("message"))
	require.NoError(t, err)

	// BIP66 严格 DER 结构
	require.True(t, 8 < len(sig) && len(sig) <= 72)
	require.Equal(t, byte(0x30), sig[0])
	require.Equal(t, len(sig)-2, int(sig[1]))
	require.Equal(t, byte(0x02), sig[2])
	lenR := int(sig[3])
	require.Zero(t, sig[4]&0x80)
	startS := lenR + 4
	require.Equal(t, byte(0x02), sig[startS])
	require.Zero(t, sig[startS+2]&0x80)
	require.Equal(t, len(sig), startS+int(sig[startS+1])+2)
}

func TestDestroy(t *testing.T) {
	kp, err := FromSeed([]byte("destroy"))
	require.NoError(t, err)

	kp.Destroy()
	require.True(t, kp.Secret().Destroyed())
	_, err = kp.Sign(SchemeECDSA, []byte("m"))
	require.ErrorIs(t, err, ErrSecretDestroyed)

	// 公钥仍然可用
	require.Len(t, kp.SerializePublic(), PublicKeyLen)
	kp.Destroy()
}

func TestFingerprint(t *testing.T) {
	kp, err := FromSeed([]byte("fp"))
	require.NoError(t, err)
	require.Len(t, kp.Fingerprint(), 8)
	require.Equal(t, kp.Fingerprint(), Fingerprint(kp.PublicKey()))
	require.Empty(t, Fingerprint(nil))
}

func TestParsePublicKey(t *testing.T) {
	kp, err := FromSeed([]byte("parse"))
	require.NoError(t, err)

	pub, err := ParsePublicKey(kp.SerializePublic())
	require.NoError(t, err)
	require.True(t, pub.IsEqual(kp.PublicKey()))

	_, err = ParsePublicKey([]byte{0x02, 0x01})
	require.Error(t, err)
	_, err = ParsePublicKeyHex("zz")
	require.Error(t, err)
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("")
	require.NoError(t, err)
	require.Equal(t, SchemeECDSA, s)

	s, err = ParseScheme("Schnorr")
	require.NoError(t, err)
	require.Equal(t, SchemeSchnorr, s)

	_, err = ParseScheme("rsa")
	require.Error(t, err)
	require.False(t, Scheme(0).Valid())
}
