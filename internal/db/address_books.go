package db

// AddressBook is a named wallet list kept for the console.
type AddressBook struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	Selected  bool   `json:"selected"`
	UpdatedAt int64  `json:"updated_at"`
}

// PutAddressBook creates or replaces a named list.
func PutAddressBook(name, content string) error {
	_, err := db.Exec(`
		INSERT INTO address_books (name, content) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET content = excluded.content,
			updated_at = strftime('%s','now')`, name, content)
	return err
}

// GetAddressBook returns one list, or ErrNotFound.
func GetAddressBook(name string) (*AddressBook, error) {
	b := &AddressBook{}
	err := db.QueryRow(`
		SELECT name, content, selected, updated_at FROM address_books WHERE name = ?`, name).Scan(
		&b.Name, &b.Content, &b.Selected, &b.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// ListAddressBooks returns the non-empty lists by name. Empty ones are
// dropped on the way, as the console does when it rebuilds its selector.
func ListAddressBooks() ([]AddressBook, error) {
	if _, err := db.Exec(`DELETE FROM address_books WHERE content = ''`); err != nil {
		return nil, err
	}
	rows, err := db.Query(`
		SELECT name, content, selected, updated_at FROM address_books ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AddressBook
	for rows.Next() {
		var b AddressBook
		if err := rows.Scan(&b.Name, &b.Content, &b.Selected, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SelectAddressBook marks name as the selected list.
func SelectAddressBook(name string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE address_books SET selected = 1 WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(`UPDATE address_books SET selected = 0 WHERE name != ?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteAddressBook removes a list. Deleting a missing list is not an error.
func DeleteAddressBook(name string) error {
	_, err := db.Exec(`DELETE FROM address_books WHERE name = ?`, name)
	return err
}
