package lexer

import (
	"math"
	"testing"
)

// kinds drains src into its token Kinds (EOL included), asserting the
// shape of the token stream rather than printing it.
func kinds(t *testing.T, src string) []TokenType {
	t.Helper()
	toks, err := Tokens(src)
	if err != nil {
		t.Fatalf("Tokens(%q): unexpected error %v", src, err)
	}
	out := make([]TokenType, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestOperatorTokens(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []TokenType
	}{
		{"single char operators", "+-*/%&|^~!<>",
			[]TokenType{TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
				TokenAmp, TokenPipe, TokenCaret, TokenTilde, TokenBang, TokenLT, TokenGT, TokenEOL}},
		{"two char operators", "== != <= >= << >> && ||",
			[]TokenType{TokenEq, TokenNeq, TokenLe, TokenGe, TokenShl, TokenShr, TokenAndAnd, TokenOrOr, TokenEOL}},
		{"parens", "(x)", []TokenType{TokenLParen, TokenIdentifier, TokenRParen, TokenEOL}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(t, tt.src)
			if len(got) != len(tt.want) {
				t.Fatalf("%s: got %v, want %v", tt.src, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("%s: token %d = %s, want %s", tt.src, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIntegerLiteralForms(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantKind TokenType
		wantInt  int64
		wantUint uint64
	}{
		{"decimal", "42", TokenInteger, 42, 0},
		{"hex", "0x2A", TokenInteger, 42, 0},
		{"octal", "052", TokenInteger, 42, 0},
		{"unsigned suffix", "42u", TokenUInteger, 0, 42},
		{"unsigned suffix upper", "42U", TokenUInteger, 0, 42},
		{"beyond int64 promotes to uinteger", "18446744073709551615", TokenUInteger, 0, math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokens(tt.src)
			if err != nil {
				t.Fatalf("Tokens(%q): %v", tt.src, err)
			}
			tok := toks[0]
			if tok.Kind != tt.wantKind {
				t.Fatalf("kind = %s, want %s", tok.Kind, tt.wantKind)
			}
			switch tt.wantKind {
			case TokenInteger:
				if tok.Payload.Int != tt.wantInt {
					t.Errorf("Payload.Int = %d, want %d", tok.Payload.Int, tt.wantInt)
				}
			case TokenUInteger:
				if tok.Payload.Uint != tt.wantUint {
					t.Errorf("Payload.Uint = %d, want %d", tok.Payload.Uint, tt.wantUint)
				}
			}
		})
	}
}

func TestFloatLiteral(t *testing.T) {
	toks, err := Tokens("3.14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != TokenFloat {
		t.Fatalf("kind = %s, want FLOAT", toks[0].Kind)
	}
	if toks[0].Payload.Float != 3.14 {
		t.Errorf("Payload.Float = %v, want 3.14", toks[0].Payload.Float)
	}
}

func TestIdentifier(t *testing.T) {
	toks, err := Tokens("addr_value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != TokenIdentifier || toks[0].Payload.Ident != "addr_value" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestMalformedLiteralIsLexError(t *testing.T) {
	// a digit sequence invalid in its inferred base (9 is not an octal digit)
	_, err := Tokens("09")
	if err == nil {
		t.Fatal("expected a lex error for an invalid octal digit sequence")
	}
}

func TestRestartAt(t *testing.T) {
	src := "1 + 2"
	s := RestartAt(src, 4)
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != TokenInteger || tok.Payload.Int != 2 {
		t.Fatalf("got %+v, want INTEGER 2", tok)
	}
}
