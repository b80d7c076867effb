package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// idParam lit l'identifiant passé en query string (?id=).
func idParam(r *http.Request) (uint, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// fixed3 rend un montant au millime, le format d'affichage de toute
// l'application.
func fixed3(d decimal.Decimal) string { return d.StringFixed(3) }

var motifRecherche = regexp.MustCompile(`[^\p{L}\p{N} \-_/]`)

// motifLike nettoie un terme de recherche avant de le passer dans un LIKE.
func motifLike(query string) string {
	safe := motifRecherche.ReplaceAllString(query, "")
	return "%" + strings.ToLower(safe) + "%"
}

// pagination lit limit et page avec les bornes par défaut de l'API.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}
