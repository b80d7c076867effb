package importer

import (
	"errors"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErrClasseurIllisible: le fichier reçu n'est pas un classeur Excel
// exploitable.
var ErrClasseurIllisible = errors.New("classeur illisible")

// LireClasseur retourne les lignes brutes de la première feuille d'un
// classeur xlsx. Seule la première feuille compte, comme dans les exports
// des fournisseurs.
func LireClasseur(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Join(ErrClasseurIllisible, err)
	}
	defer f.Close()

	feuilles := f.GetSheetList()
	if len(feuilles) == 0 {
		return nil, ErrClasseurIllisible
	}
	rows, err := f.GetRows(feuilles[0])
	if err != nil {
		return nil, errors.Join(ErrClasseurIllisible, err)
	}
	return rows, nil
}
