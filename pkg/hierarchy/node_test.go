package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"arcula/pkg/certificate"
	"arcula/pkg/derivation"
	"arcula/pkg/errno"
	"arcula/pkg/hdpath"
	"arcula/pkg/keypair"
)

// leftRight 构造 root(0) -> left(1, "l", hardened), right(1, "r", non-hardened)
func leftRight(t *testing.T) (root, left, right *Node) {
	t.Helper()
	root = NewRoot("")
	left = New(1, "l", derivation.Hardened)
	right = New(1, "r", derivation.NonHardened)
	require.NoError(t, root.AddEdge(left))
	require.NoError(t, root.AddEdge(right))
	return root, left, right
}

// keyTree 直接用 derivation 和 certificate 给整棵树写入密钥
func keyTree(t *testing.T, root *Node) {
	t.Helper()
	rm, err := derivation.Root([]byte("hierarchy test"), root.ID(), root.Tag())
	require.NoError(t, err)
	require.NoError(t, root.SetKeys(&Keys{Spend: rm.Key.Pair, PublicKey: rm.Key.Public, Signing: rm.Signing, Encryption: rm.Encryption}))

	err = Walk(root, DepthFirst, func(n *Node) error {
		for _, child := range n.Edges() {
			parent, err := n.Keys()
			if err != nil {
				return err
			}
			m, err := derivation.Child(parent.Material(), child.ID(), child.Tag(), child.Mode())
			if err != nil {
				return err
			}
			cert, err := certificate.Issue(parent.Signing, keypair.SchemeECDSA, child.ID(), child.Tag(),
				child.Mode(), m.Key.Public, m.Signing.PublicKey())
			if err != nil {
				return err
			}
			sealed, err := derivation.SealEdge(parent.Encryption, child.ID(), child.Tag(), m)
			if err != nil {
				return err
			}
			if err := child.SetKeys(&Keys{Spend: m.Key.Pair, PublicKey: m.Key.Public, Signing: m.Signing,
				Certificate: cert, Encryption: m.Encryption, EncryptedEdge: sealed}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestAddEdge(t *testing.T) {
	root, left, right := leftRight(t)

	require.Equal(t, []*Node{left, right}, root.Edges())
	require.Same(t, root, left.Parent())
	require.True(t, root.IsRoot())
	require.False(t, left.IsRoot())
	require.Equal(t, 1, right.Depth())
	require.Same(t, root, right.Root())

	err := root.AddEdge(New(1, "l", derivation.NonHardened))
	var dup *DuplicateEdgeError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "l", dup.Tag)
	require.ErrorIs(t, err, errno.ErrDuplicateEdge)

	// 同 id 不同 tag、同 tag 不同 id 都允许
	_, err = root.Add(2, "l", derivation.Hardened)
	require.NoError(t, err)

	require.ErrorIs(t, root.AddEdge(left), ErrAlreadyParented)
	require.ErrorIs(t, left.AddEdge(root), ErrCycle)
	require.ErrorIs(t, root.AddEdge(nil), ErrNilNode)
	require.ErrorIs(t, root.AddEdge(New(9, "", derivation.Mode(7))), derivation.ErrInvalidMode)
}

func TestAddEdgeTagCaseInsensitive(t *testing.T) {
	root := NewRoot("")
	lower, err := root.Add(1, "l", derivation.Hardened)
	require.NoError(t, err)

	// 路径匹配不区分大小写，只差大小写的兄弟节点无法被路径区分
	_, err = root.Add(1, "L", derivation.Hardened)
	var dup *DuplicateEdgeError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "L", dup.Tag)
	require.ErrorIs(t, err, errno.ErrDuplicateEdge)
	require.Len(t, root.Edges(), 1)

	other, err := root.Add(2, "L", derivation.Hardened)
	require.NoError(t, err)

	for _, n := range []*Node{lower, other} {
		found, err := root.Lookup(n.Path())
		require.NoError(t, err, n.Path())
		require.Same(t, n, found)
	}
	require.True(t, SameIdentity(lower, New(1, "L", derivation.NonHardened)))
	require.False(t, SameIdentity(lower, other))
}

func TestKeysReturnsCopy(t *testing.T) {
	root, left, _ := leftRight(t)
	keyTree(t, root)
	rootPub, err := root.PublicKey()
	require.NoError(t, err)

	keys, err := left.Keys()
	require.NoError(t, err)
	original := keys.Certificate.Clone()

	keys.Certificate.Signature[0] ^= 0x01
	keys.Certificate.Message[0] ^= 0x80
	keys.Certificate = nil
	keys.PublicKey = rootPub
	keys.Spend = nil

	again, err := left.Keys()
	require.NoError(t, err)
	require.Equal(t, original, again.Certificate)
	require.False(t, again.PublicKey.IsEqual(rootPub))
	require.False(t, again.WatchOnly())

	chain, err := left.Chain()
	require.NoError(t, err)
	require.NoError(t, certificate.VerifyChain(chain, rootPub))
}

func TestKeysLifecycle(t *testing.T) {
	root, left, right := leftRight(t)

	_, err := left.Keys()
	var notYet *KeyNotYetGeneratedError
	require.True(t, errors.As(err, &notYet))
	require.Equal(t, "m/l'", notYet.Path)
	require.ErrorIs(t, err, errno.ErrKeyNotYetGenerated)

	keyTree(t, root)

	lk, err := left.Keys()
	require.NoError(t, err)
	require.False(t, lk.WatchOnly())
	require.NotNil(t, lk.Secret())

	rk, err := right.Keys()
	require.NoError(t, err)
	require.True(t, rk.WatchOnly())
	require.Nil(t, rk.Secret())
	require.NotNil(t, rk.Signing)

	// 只能写入一次
	err = left.SetKeys(lk)
	require.ErrorIs(t, err, errno.ErrAlreadyKeyed)

	// 已生成密钥的节点不能再加边
	_, err = left.Add(0, "", derivation.Hardened)
	require.ErrorIs(t, err, errno.ErrAlreadyKeyed)

	require.ErrorIs(t, New(1, "", derivation.Hardened).SetKeys(&Keys{}), ErrIncompleteKeys)
}

func TestSetKeysRequiresCertificateBelowRoot(t *testing.T) {
	_, left, _ := leftRight(t)
	kp, err := keypair.FromSeed([]byte("k"))
	require.NoError(t, err)

	err = left.SetKeys(&Keys{Spend: kp, PublicKey: kp.PublicKey(), Signing: kp})
	require.ErrorIs(t, err, ErrIncompleteKeys)
	require.False(t, left.Keyed())
}

func TestChain(t *testing.T) {
	root := NewRoot("")
	a, err := root.Add(1, "a", derivation.Hardened)
	require.NoError(t, err)
	b, err := a.Add(2, "b", derivation.NonHardened)
	require.NoError(t, err)

	_, err = b.Chain()
	require.ErrorIs(t, err, errno.ErrKeyNotYetGenerated)

	keyTree(t, root)
	rootPub, err := root.PublicKey()
	require.NoError(t, err)

	chain, err := b.Chain()
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.Equal(t, uint64(1), chain[0].Certificate.ID)
	require.NoError(t, certificate.VerifyChain(chain, rootPub))

	chain, err = root.Chain()
	require.NoError(t, err)
	require.Empty(t, chain)
}

func TestWipe(t *testing.T) {
	root, left, right := leftRight(t)
	keyTree(t, root)
	root.Wipe()

	for _, n := range []*Node{root, left, right} {
		keys, err := n.Keys()
		require.NoError(t, err)
		require.True(t, keys.Signing.Secret().Destroyed())
		require.NotNil(t, keys.PublicKey)
	}
	lk, _ := left.Keys()
	require.True(t, lk.Secret().Destroyed())
	require.Nil(t, lk.Encryption)
	require.NotEmpty(t, lk.EncryptedEdge)
}

func TestEncryptedEdges(t *testing.T) {
	root, left, right := leftRight(t)
	keyTree(t, root)

	rk, err := root.Keys()
	require.NoError(t, err)
	edges, err := root.EncryptedEdges()
	require.NoError(t, err)
	require.Len(t, edges, 2)

	lk, _ := left.Keys()
	opened, err := derivation.OpenEdge(rk.Encryption, left.ID(), left.Tag(), edges[0])
	require.NoError(t, err)
	require.Equal(t, lk.Encryption, opened.Encryption)
	require.True(t, opened.Spend.PublicKey().IsEqual(lk.PublicKey))

	// 观察节点的加密边只含加密密钥
	rightKeys, _ := right.Keys()
	opened, err = derivation.OpenEdge(rk.Encryption, right.ID(), right.Tag(), edges[1])
	require.NoError(t, err)
	require.Nil(t, opened.Spend)
	require.Equal(t, rightKeys.Encryption, opened.Encryption)

	// 加密边绑定子节点身份
	_, err = derivation.OpenEdge(rk.Encryption, right.ID(), right.Tag(), edges[0])
	require.Error(t, err)

	_, err = NewRoot("").EncryptedEdges()
	require.NoError(t, err)
}

func TestWalk(t *testing.T) {
	root := NewRoot("")
	a, _ := root.Add(1, "a", derivation.Hardened)
	b, _ := root.Add(2, "b", derivation.Hardened)
	a1, _ := a.Add(1, "a1", derivation.NonHardened)
	b1, _ := b.Add(1, "b1", derivation.NonHardened)

	var dfs, bfs []*Node
	require.NoError(t, Walk(root, DepthFirst, func(n *Node) error { dfs = append(dfs, n); return nil }))
	require.NoError(t, Walk(root, BreadthFirst, func(n *Node) error { bfs = append(bfs, n); return nil }))
	require.Equal(t, []*Node{root, a, a1, b, b1}, dfs)
	require.Equal(t, []*Node{root, a, b, a1, b1}, bfs)

	var skipped []*Node
	require.NoError(t, Walk(root, BreadthFirst, func(n *Node) error {
		skipped = append(skipped, n)
		if n == a {
			return SkipSubtree
		}
		return nil
	}))
	require.Equal(t, []*Node{root, a, b, b1}, skipped)

	stop := errors.New("stop")
	require.ErrorIs(t, Walk(root, DepthFirst, func(n *Node) error { return stop }), stop)

	require.Equal(t, [][]*Node{{root}, {a, b}, {a1, b1}}, Levels(root))
	require.Equal(t, 5, Count(root))

	order, err := ParseOrder("BFS")
	require.NoError(t, err)
	require.Equal(t, BreadthFirst, order)
	_, err = ParseOrder("random")
	require.Error(t, err)
}

func TestFind(t *testing.T) {
	root, left, right := leftRight(t)

	tests := []struct {
		path string
		want *Node
	}{
		{"m", root},
		{"m/l", left},
		{"m/L'", left},
		{"m/r", right},
	}
	for _, tt := range tests {
		got, err := root.Lookup(tt.path)
		require.NoError(t, err, tt.path)
		require.Same(t, tt.want, got, tt.path)
	}

	for path, reason := range map[string]string{
		"m/x":    "没有匹配的边",
		"m/r'":   "匹配的边不是 hardened",
		"m/1":    "匹配到多条边",
		"m/l/0":  "没有匹配的边",
		"m/1'/0": "没有匹配的边",
	} {
		_, err := root.Lookup(path)
		var notFound *PathNotFoundError
		require.True(t, errors.As(err, &notFound), path)
		require.Equal(t, reason, notFound.Reason, path)
		require.ErrorIs(t, err, errno.ErrPathNotFound)
	}

	// m/1' 只选中 hardened 的 left
	got, err := Find(root, hdpath.MustParse("m/1'"))
	require.NoError(t, err)
	require.Same(t, left, got)

	_, err = root.Lookup("x/1")
	require.ErrorIs(t, err, errno.ErrInvalidPath)
}

func TestPathRoundTrip(t *testing.T) {
	root := NewRoot("")
	purpose, _ := root.Add(44, "", derivation.Hardened)
	coin, _ := purpose.Add(145, "BCH", derivation.Hardened)
	account, _ := coin.Add(1, "", derivation.Hardened)
	xpub, _ := account.Add(0, "XPUB", derivation.NonHardened)
	_, _ = account.Add(1, "XPRV", derivation.Hardened)
	addr, _ := xpub.Add(3, "", derivation.NonHardened)

	require.Equal(t, "m/44'/BCH'/1'/XPUB/3", addr.Path())

	found, err := root.Lookup(addr.Path())
	require.NoError(t, err)
	require.Same(t, addr, found)

	// id 冲突时使用标签，标签冲突时使用 id
	r := NewRoot("")
	x, _ := r.Add(1, "dup", derivation.Hardened)
	y, _ := r.Add(2, "DUP", derivation.Hardened)
	z, _ := r.Add(2, "z", derivation.Hardened)
	require.Equal(t, "1", x.Selector())
	require.Equal(t, "2", y.Selector())
	require.Equal(t, "z", z.Selector())
	for _, n := range []*Node{x, z} {
		found, err := r.Lookup(n.Path())
		require.NoError(t, err)
		require.Same(t, n, found)
	}
}
