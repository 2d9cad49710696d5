package bip44

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"arcula/pkg/derivation"
	"arcula/pkg/errno"
	"arcula/pkg/hierarchy"
)

func TestBuildTreeShape(t *testing.T) {
	cfg := Config{
		"BTC": {{Public: 2, Private: 1}, {Public: 3, Private: 5}, {Public: 1, Private: 0}},
		"ltc": {{Public: 5, Private: 5}},
	}
	root, err := BuildTree(cfg)
	require.NoError(t, err)

	want := 1 + 1 // root, purpose
	for _, accounts := range cfg {
		want++                    // coin
		want += 3 * len(accounts) // account, XPUB, XPRV
		for _, a := range accounts {
			want += a.Public + a.Private
		}
	}
	require.Equal(t, want, hierarchy.Count(root))

	purpose := root.Edges()[0]
	require.Equal(t, Purpose, purpose.ID())
	coins := purpose.Edges()
	require.Len(t, coins, 2)
	require.Equal(t, "BTC", coins[0].Tag())
	require.Equal(t, "LTC", coins[1].Tag())
	require.Equal(t, uint64(2), coins[1].ID())

	btc := coins[0]
	require.Len(t, btc.Edges(), 3)
	account := btc.Edges()[1]
	require.Equal(t, derivation.Hardened, account.Mode())
	branches := account.Edges()
	require.Equal(t, PublicBranchTag, branches[0].Tag())
	require.Equal(t, derivation.NonHardened, branches[0].Mode())
	require.Len(t, branches[0].Edges(), 3)
	require.Equal(t, PrivateBranchTag, branches[1].Tag())
	require.Equal(t, derivation.Hardened, branches[1].Mode())
	require.Len(t, branches[1].Edges(), 5)
}

func TestFindWithPath(t *testing.T) {
	root, err := BuildTree(Config{
		"BTC": {{Public: 2, Private: 1}, {Public: 4, Private: 5}, {Public: 1, Private: 0}},
		"LTC": {{Public: 5, Private: 5}},
	})
	require.NoError(t, err)

	btc, err := root.Lookup("m/44'/BTC")
	require.NoError(t, err)
	require.Equal(t, "BTC", btc.Tag())
	require.Len(t, btc.Edges(), 3)

	account, err := root.Lookup("m/44'/BTC/1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), account.ID())
	require.Len(t, account.Edges(), 2)

	xpub, err := root.Lookup("m/44'/BTC/1/xpub")
	require.NoError(t, err)
	require.Equal(t, PublicBranchID, xpub.ID())

	addr, err := root.Lookup("m/44'/BTC/1/xpub/3")
	require.NoError(t, err)
	require.Equal(t, uint64(3), addr.ID())
	require.Empty(t, addr.Edges())
	require.Equal(t, AddressPath("btc", 1, true, 3), addr.Path())

	priv, err := root.Lookup(AddressPath("BTC", 1, false, 4))
	require.NoError(t, err)
	require.Equal(t, derivation.Hardened, priv.Mode())

	for _, path := range []string{"m/44'/BTC/1/xpub/4", "m/44'/BTC/1/xpub/3/0", "m/44'/ETH", "m/44'/BTC/1/xpub'"} {
		_, err := root.Lookup(path)
		require.ErrorIs(t, err, errno.ErrPathNotFound, path)
	}
}

func TestBuildTreeRejects(t *testing.T) {
	tests := map[string]Config{
		"unknown coin":  {"DOGE": {{Public: 1}}},
		"empty account": {"BTC": {{Public: 0, Private: 0}}},
		"no accounts":   {"BTC": nil},
		"negative":      {"BTC": {{Public: -1, Private: 1}}},
		"duplicate":     {"BTC": {{Public: 1}}, "btc": {{Public: 1}}},
		"empty":         {},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := BuildTree(cfg)
			require.Error(t, err)
		})
	}

	_, err := BuildTree(Config{"DOGE": {{Public: 1}}})
	require.ErrorIs(t, err, ErrUnknownCoin)
	_, err = BuildTree(Config{"BTC": {{}}})
	require.ErrorIs(t, err, ErrEmptyAccount)
}

func TestCoinOf(t *testing.T) {
	root, err := BuildTree(Config{"ETH": {{Public: 1}}})
	require.NoError(t, err)

	addr, err := root.Lookup(AddressPath("ETH", 0, true, 0))
	require.NoError(t, err)
	require.Equal(t, "ETH", CoinOf(addr))
	require.Equal(t, "", CoinOf(root))
}

func TestWallet(t *testing.T) {
	cfg := Config{"BCH": {{Public: 1, Private: 2}, {Public: 4, Private: 5}, {Public: 0, Private: 1}}}
	w, err := NewWallet(context.Background(), []byte("correct horse battery staple"), cfg)
	require.NoError(t, err)

	rootPub, err := w.ColdStoragePublicKey()
	require.NoError(t, err)

	signing, cert, err := w.SigningKeyCertificate("m/44'/BCH/1/xpub/3")
	require.NoError(t, err)
	require.NotNil(t, signing)
	require.Equal(t, uint64(3), cert.ID)

	node, err := w.Lookup("m/44'/BCH/1/xpub/3")
	require.NoError(t, err)
	require.NoError(t, w.VerifyChain(node))
	keys, err := node.Keys()
	require.NoError(t, err)
	require.True(t, keys.WatchOnly())

	pub, _, _, err := w.Address("BCH", 1, false, 4)
	require.NoError(t, err)
	priv, err := w.Lookup(AddressPath("BCH", 1, false, 4))
	require.NoError(t, err)
	pk, err := priv.Keys()
	require.NoError(t, err)
	require.False(t, pk.WatchOnly())
	require.True(t, pub.IsEqual(pk.PublicKey))
	require.False(t, pub.IsEqual(rootPub))

	_, _, _, err = w.Address("BCH", 2, true, 0)
	require.ErrorIs(t, err, errno.ErrPathNotFound)
}

func TestPrivateBranchAlias(t *testing.T) {
	require.Equal(t, "m/44'/BTC/0/XPRV/0", NormalizePath("m/44'/BTC/0/xpriv/0"))
	require.Equal(t, "m/44'/BTC'/0'/XPRV'/1'", NormalizePath("m/44'/BTC'/0'/XPriv'/1'"))
	require.Equal(t, "m/44'/BTC/0/xpub/0", NormalizePath("m/44'/BTC/0/xpub/0"))
	require.Equal(t, "not a path", NormalizePath("not a path"))

	w, err := NewWallet(context.Background(), []byte("alias seed"), Config{"BTC": {{Public: 1, Private: 2}}})
	require.NoError(t, err)

	want, err := w.Lookup(AddressPath("BTC", 0, false, 1))
	require.NoError(t, err)
	for _, path := range []string{"m/44'/BTC/0/xpriv/1", "m/44'/btc'/0'/XPRIV'/1'", "m/44'/BTC/0/xprv/1"} {
		got, err := w.Lookup(path)
		require.NoError(t, err, path)
		require.Same(t, want, got, path)
	}

	_, cert, err := w.SigningKeyCertificate("m/44'/BTC/0/xpriv/1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), cert.ID)

	// 账户的加密密钥可以恢复私有分支下的地址秘密
	accountEnc, err := w.EncryptionKey("m/44'/BTC'/0'")
	require.NoError(t, err)
	keys, err := want.Keys()
	require.NoError(t, err)
	got, err := w.Recover(accountEnc, "m/44'/BTC'/0'", "m/44'/BTC/0/xpriv/1")
	require.NoError(t, err)
	require.True(t, got.Spend.PublicKey().IsEqual(keys.PublicKey))
}
