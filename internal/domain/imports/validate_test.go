package imports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateMinimalImport(t *testing.T) {
	res, err := Validate([]byte("nome,email,cargo\nAna,ana@x.com,Dev"))
	require.NoError(t, err)
	require.Equal(t, []ValidRow{{Name: "Ana", Email: "ana@x.com", Title: "Dev"}}, res.Valid)
	require.Empty(t, res.Errors)
}

func TestValidateBadEmailAtLineTwo(t *testing.T) {
	res, err := Validate([]byte("nome,email,cargo\nBob,bob-at-x,QA"))
	require.NoError(t, err)
	require.Empty(t, res.Valid)
	require.Equal(t, []ErrorRow{{Line: 2, Message: MsgInvalidEmail, Raw: "Bob,bob-at-x,QA"}}, res.Errors)
}

func TestValidateMissingColumnAborts(t *testing.T) {
	res, err := Validate([]byte("nome,email\nAna,ana@x.com"))
	require.ErrorIs(t, err, ErrMissingColumns)
	require.Contains(t, err.Error(), "cargo")
	require.Empty(t, res.Valid)
	require.Empty(t, res.Errors)
}

func TestValidateEmptyPayload(t *testing.T) {
	for _, payload := range []string{"", "\n\n", "   \n\t\n"} {
		_, err := Validate([]byte(payload))
		require.ErrorIs(t, err, ErrEmptyPayload, "payload %q", payload)
	}
}

func TestValidateHeaderOnly(t *testing.T) {
	res, err := Validate([]byte("nome,email,cargo\n"))
	require.NoError(t, err)
	require.Empty(t, res.Valid)
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Valid)
}

func TestValidateFirstFailureWins(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{",,", MsgNameRequired},
		{" ,bad,", MsgNameRequired},
		{"Ana,,", MsgInvalidEmail},
		{"Ana,a@b,", MsgInvalidEmail},
		{"Ana,a b@c.d,Dev", MsgInvalidEmail},
		{"Ana,a@b.c,", MsgTitleRequired},
		{"Ana,a@b.c", MsgTitleRequired},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.line, func(t *testing.T) {
			res, err := Validate([]byte("nome,email,cargo\n" + tc.line))
			require.NoError(t, err)
			require.Len(t, res.Errors, 1)
			require.Equal(t, tc.want, res.Errors[0].Message)
		})
	}
}

func TestValidateHeaderFlexibility(t *testing.T) {
	payload := "\ufeff  CARGO , Email,Nome,extra\r\nDev,ana@x.com,Ana,ignored\r\n"
	res, err := Validate([]byte(payload))
	require.NoError(t, err)
	require.Equal(t, []ValidRow{{Name: "Ana", Email: "ana@x.com", Title: "Dev"}}, res.Valid)

	res, err = Validate([]byte("name,email,title\nAna,ana@x.com,Dev"))
	require.NoError(t, err)
	require.Len(t, res.Valid, 1)
}

func TestValidatePhysicalLineNumbers(t *testing.T) {
	payload := strings.Join([]string{
		"",
		"nome,email,cargo",
		"Ana,ana@x.com,Dev",
		"",
		"   ",
		"Bob,,QA",
		"\"Lee, Jr\",lee@x.com,\"Ops\"",
		"Cid,cid@x.com,",
	}, "\n")

	res, err := Validate([]byte(payload))
	require.NoError(t, err)
	require.Equal(t, []ValidRow{
		{Name: "Ana", Email: "ana@x.com", Title: "Dev"},
		{Name: "Lee, Jr", Email: "lee@x.com", Title: "Ops"},
	}, res.Valid)
	require.Equal(t, []ErrorRow{
		{Line: 6, Message: MsgInvalidEmail, Raw: "Bob,,QA"},
		{Line: 8, Message: MsgTitleRequired, Raw: "Cid,cid@x.com,"},
	}, res.Errors)
}

func TestValidatePartitionsEveryDataLine(t *testing.T) {
	lines := []string{"nome,email,cargo"}
	for i := 0; i < 50; i++ {
		switch i % 4 {
		case 0:
			lines = append(lines, "Ana,ana@x.com,Dev")
		case 1:
			lines = append(lines, ",ana@x.com,Dev")
		case 2:
			lines = append(lines, "Ana,nope,Dev")
		default:
			lines = append(lines, "Ana,ana@x.com")
		}
	}
	payload := []byte(strings.Join(lines, "\n"))

	first, err := Validate(payload)
	require.NoError(t, err)
	require.Equal(t, 50, first.Total())
	require.Len(t, first.Valid, 13)

	second, err := Validate(payload)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestValidateStrayQuoteStaysOnItsLine(t *testing.T) {
	payload := "nome,email,cargo\n\"Ana,ana@ex.com,Eng\nBruno,bruno@ex.com,Analista\nCarla,carla@ex.com,Dev\n"

	res, err := Validate([]byte(payload))
	require.NoError(t, err)
	require.Equal(t, []ErrorRow{{Line: 2, Message: MsgMalformedRow, Raw: "\"Ana,ana@ex.com,Eng"}}, res.Errors)
	require.Equal(t, []ValidRow{
		{Name: "Bruno", Email: "bruno@ex.com", Title: "Analista"},
		{Name: "Carla", Email: "carla@ex.com", Title: "Dev"},
	}, res.Valid)
	require.Equal(t, 3, res.Total())

	res, err = Validate([]byte("nome,email,cargo\nAna,ana@ex.com,Eng\"x\nBruno,bruno@ex.com,QA"))
	require.NoError(t, err)
	require.Equal(t, []ErrorRow{{Line: 2, Message: MsgMalformedRow, Raw: "Ana,ana@ex.com,Eng\"x"}}, res.Errors)
	require.Len(t, res.Valid, 1)
}
