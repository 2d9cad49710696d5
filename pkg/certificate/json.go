package certificate

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"arcula/pkg/derivation"
	"arcula/pkg/keypair"
)

type certificateJSON struct {
	Version    uint8  `json:"version"`
	Scheme     string `json:"scheme"`
	Mode       string `json:"mode"`
	ID         uint64 `json:"id"`
	Tag        string `json:"tag"`
	SigningKey string `json:"signing_key"`
	Signature  string `json:"signature"`
	Message    string `json:"message"`
}

func (c *Certificate) MarshalJSON() ([]byte, error) {
	out := certificateJSON{
		Version:   c.Version,
		Scheme:    c.Scheme.String(),
		Mode:      c.Mode.String(),
		ID:        c.ID,
		Tag:       c.Tag,
		Signature: hex.EncodeToString(c.Signature),
		Message:   hex.EncodeToString(c.Message),
	}
	if c.SigningKey != nil {
		out.SigningKey = hex.EncodeToString(c.SigningKey.SerializeCompressed())
	}
	return json.Marshal(out)
}

func (c *Certificate) UnmarshalJSON(data []byte) error {
	var in certificateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	scheme, err := keypair.ParseScheme(in.Scheme)
	if err != nil {
		return err
	}
	mode, err := derivation.ParseMode(in.Mode)
	if err != nil {
		return err
	}
	signingKey, err := keypair.ParsePublicKeyHex(in.SigningKey)
	if err != nil {
		return fmt.Errorf("signing_key: %w", err)
	}
	sig, err := hex.DecodeString(in.Signature)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	msg, err := hex.DecodeString(in.Message)
	if err != nil {
		return fmt.Errorf("message: %w", err)
	}

	*c = Certificate{
		Version:    in.Version,
		Scheme:     scheme,
		Mode:       mode,
		ID:         in.ID,
		Tag:        in.Tag,
		SigningKey: signingKey,
		Signature:  sig,
		Message:    msg,
	}
	return nil
}

type linkJSON struct {
	PublicKey   string       `json:"public_key"`
	Certificate *Certificate `json:"certificate"`
}

func (l Link) MarshalJSON() ([]byte, error) {
	out := linkJSON{Certificate: l.Certificate}
	if l.PublicKey != nil {
		out.PublicKey = hex.EncodeToString(l.PublicKey.SerializeCompressed())
	}
	return json.Marshal(out)
}

func (l *Link) UnmarshalJSON(data []byte) error {
	var in linkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	pub, err := keypair.ParsePublicKeyHex(in.PublicKey)
	if err != nil {
		return fmt.Errorf("public_key: %w", err)
	}
	l.PublicKey = pub
	l.Certificate = in.Certificate
	return nil
}
