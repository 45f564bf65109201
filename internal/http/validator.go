package httpapi

import (
	"github.com/Aleksandr505/Confa/internal/auth/token"
	"github.com/Aleksandr505/Confa/pkg/platform/middleware/auth"
)

// CodecValidator adapts the token codec to the middleware validator so the
// middleware package stays free of domain imports.
type CodecValidator struct {
	Codec *token.Codec
}

func (v CodecValidator) ValidateToken(tokenString string) (*auth.TokenClaims, error) {
	claims, err := v.Codec.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.TokenClaims{
		Subject: claims.Subject,
		Scope:   claims.Scope,
		JTI:     claims.ID,
	}, nil
}
