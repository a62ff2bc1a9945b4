package repository

import "errors"

var (
	// ErrNotFound: la identidad (o el perfil buscado) no existe.
	ErrNotFound = errors.New("repository: identity not found")

	// ErrConflict: la identidad o el perfil ya existen, típicamente porque
	// otra request los creó en paralelo.
	ErrConflict = errors.New("repository: identity already exists")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
