package arith

type token struct {
	text string
	pos  int
}

// Token predicates.
func isNumberToken(s string) bool   { return isNumber(s[0]) || s[0] == '.' }
func isVariableToken(s string) bool { return isLetter(s[0]) }

// Operators, longer ones first so that the longest match wins.
var operators = []string{
	"<<=", ">>=",
	"**", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "^=", "|=",
	"+", "-", "*", "/", "%", "<", ">", "&", "^", "|", "!", "~", "=",
	"?", ":", "(", ")", ",",
}

const (
	octalDigitsSet       = "01234567"
	decimalDigitsSet     = octalDigitsSet + "89"
	hexadecimalDigitsSet = decimalDigitsSet + "abcdefABCDEF"
	wordSet              = "_" + hexadecimalDigitsSet + "ghijklmnopqrstuvwxyzGHIJKLMNOPQRSTUVWXYZ"
)

// Breaks arithmetic expression into tokens.
func lex(s string) ([]token, error) {
	p := basicParser{s, 0}
	var tokens []token
	for {
		p.consumeWhile(func(r rune) bool { return r < 0x80 && isWhitespace(byte(r)) })
		if p.eof() {
			return tokens, nil
		}
		start := p.pos
		var text string
		if word := p.consumeWhileIn(wordSet); word != "" {
			// Lump number and variable tokens together, since numbers can
			// contain letters (like 0x10) and variables can contain numbers
			// (like a1). They can be later distinguished with isNumberToken and
			// isVariableToken.
			text = word
			if isNumber(word[0]) && p.hasPrefix(".") {
				// Fraction of a floating-point literal.
				text += p.consume(1) + p.consumeWhileIn(decimalDigitsSet)
			}
		} else if p.hasPrefix(".") && len(p.rest()) > 1 && isNumber(p.rest()[1]) {
			text = p.consume(1) + p.consumeWhileIn(decimalDigitsSet)
		} else if op := p.consumePrefixIn(operators...); op != "" {
			text = op
		} else {
			return nil, &SyntaxError{start, "invalid character " + quoteRune(p.rest())}
		}
		tokens = append(tokens, token{text, start})
	}
}

func isWhitespace(x byte) bool { return x == ' ' || x == '\t' || x == '\r' || x == '\n' || x == '\v' }

// Note: _ is considered a letter.
func isLetter(x byte) bool { return 'a' <= x && x <= 'z' || 'A' <= x && x <= 'Z' || x == '_' }
func isNumber(x byte) bool { return '0' <= x && x <= '9' }

func quoteRune(s string) string {
	for _, r := range s {
		return "'" + string(r) + "'"
	}
	return "EOF"
}
