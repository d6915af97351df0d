package readinglists

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var (
	// ErrListExistsWithSameName is returned when a list name collides,
	// ignoring case, with an existing list.
	ErrListExistsWithSameName = errors.New("reading list exists with the same name")

	// ErrListNotFound is returned when no list matches the provided name.
	ErrListNotFound = errors.New("reading list with provided name not found")

	// ErrUnableToCreateList is returned when the store cannot create a list.
	ErrUnableToCreateList = errors.New("unable to create reading list")

	// ErrClosed is returned for calls made after the controller was closed.
	ErrClosed = errors.New("reading list controller closed")
)

const (
	msgListExists   = "A reading list already exists with the name ‟%s”"
	msgListNotFound = "A reading list with the name ‟%s” was not found. Please make sure you have the correct name."
	msgUnableCreate = "An unexpected error occurred while creating your reading list. Please try again later."
)

// SupportedLanguages lists the languages user-facing errors are translated
// into. The first entry is the fallback.
var SupportedLanguages = []language.Tag{language.English, language.German}

var messages = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	set := func(tag language.Tag, key, msg string) {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}
	set(language.English, msgListExists, msgListExists)
	set(language.English, msgListNotFound, msgListNotFound)
	set(language.English, msgUnableCreate, msgUnableCreate)
	set(language.German, msgListExists, "Es gibt bereits eine Leseliste mit dem Namen ‟%s”")
	set(language.German, msgListNotFound, "Eine Leseliste mit dem Namen ‟%s” wurde nicht gefunden. Bitte überprüfe den Namen.")
	set(language.German, msgUnableCreate, "Beim Erstellen deiner Leseliste ist ein unerwarteter Fehler aufgetreten. Bitte versuche es später erneut.")
	return b
}

// ListError is a validation error about a named list. Kind is one of the
// package's sentinel errors; Err, when set, is the store error behind it.
type ListError struct {
	Kind error
	Name string
	Err  error
}

func (e *ListError) Error() string {
	return e.Localized(language.English)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *ListError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Localized renders the user-facing message in the given language.
func (e *ListError) Localized(tag language.Tag) string {
	p := message.NewPrinter(tag, message.Catalog(messages))
	switch e.Kind {
	case ErrListExistsWithSameName:
		return p.Sprintf(msgListExists, e.Name)
	case ErrListNotFound:
		return p.Sprintf(msgListNotFound, e.Name)
	default:
		return p.Sprintf(msgUnableCreate)
	}
}

func listExists(name string) error {
	return &ListError{Kind: ErrListExistsWithSameName, Name: name}
}

func listNotFound(name string) error {
	return &ListError{Kind: ErrListNotFound, Name: name}
}

func unableToCreate(name string, cause error) error {
	return &ListError{Kind: ErrUnableToCreateList, Name: name, Err: cause}
}
