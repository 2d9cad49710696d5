package kms

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/keypair"
)

// Signer 把 KMS 中的一个密钥适配成证书签发者
type Signer struct {
	km    KeyManager
	keyID string
	pub   *btcec.PublicKey
}

func NewSigner(km KeyManager, keyID string) (*Signer, error) {
	pub, err := km.GetPublicKey(keyID)
	if err != nil {
		return nil, err
	}
	return &Signer{km: km, keyID: keyID, pub: pub}, nil
}

func (s *Signer) KeyID() string { return s.keyID }

func (s *Signer) PublicKey() *btcec.PublicKey { return s.pub }

func (s *Signer) Sign(scheme keypair.Scheme, message []byte) ([]byte, error) {
	return s.km.Sign(s.keyID, scheme, message)
}
