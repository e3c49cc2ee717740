package sync

import (
	"testing"

	"github.com/colimail/colimail-go/internal/imapsession"
)

func TestResolveTrashFolder_PrefersListAttribute(t *testing.T) {
	folders := []imapsession.Folder{
		{Name: "INBOX", Attributes: []string{"\\HasNoChildren"}},
		{Name: "Papierkorb", Attributes: []string{"\\Trash"}},
	}
	got, ok := ResolveTrashFolder(folders)
	if !ok || got != "Papierkorb" {
		t.Errorf("ResolveTrashFolder() = (%q, %v), want (Papierkorb, true)", got, ok)
	}
}

func TestResolveTrashFolder_FallsBackToFixedNameList(t *testing.T) {
	folders := []imapsession.Folder{
		{Name: "INBOX"},
		{Name: "Trash"},
		{Name: "Archive"},
	}
	got, ok := ResolveTrashFolder(folders)
	if !ok || got != "Trash" {
		t.Errorf("ResolveTrashFolder() = (%q, %v), want (Trash, true)", got, ok)
	}
}

func TestResolveTrashFolder_SkipsNoSelectCandidates(t *testing.T) {
	folders := []imapsession.Folder{
		{Name: "Trash", NoSelect: true, Attributes: []string{"\\Trash"}},
	}
	_, ok := ResolveTrashFolder(folders)
	if ok {
		t.Error("expected ResolveTrashFolder to reject a NoSelect candidate")
	}
}

func TestResolveTrashFolder_NoneFound(t *testing.T) {
	folders := []imapsession.Folder{{Name: "INBOX"}, {Name: "Archive"}}
	_, ok := ResolveTrashFolder(folders)
	if ok {
		t.Error("expected no trash folder to resolve")
	}
}

func TestResolveTrashFolder_LocaleVariant(t *testing.T) {
	folders := []imapsession.Folder{{Name: "Corbeille"}}
	got, ok := ResolveTrashFolder(folders)
	if !ok || got != "Corbeille" {
		t.Errorf("ResolveTrashFolder() = (%q, %v), want (Corbeille, true)", got, ok)
	}
}
