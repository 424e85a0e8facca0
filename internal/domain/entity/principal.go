package entity

// PrincipalKind tags every participant reference with the account model it
// belongs to. The tag is immutable once a reference is recorded on a message
// or conversation.
type PrincipalKind string

const (
	PrincipalUser  PrincipalKind = "user"
	PrincipalAdmin PrincipalKind = "admin"
)

func (k PrincipalKind) Valid() bool {
	return k == PrincipalUser || k == PrincipalAdmin
}

// Principal identifies a chat participant: a user or an admin.
type Principal struct {
	ID   string        `json:"_id" firestore:"id"`
	Kind PrincipalKind `json:"model_type" firestore:"modelType"`
}

func UserPrincipal(id string) Principal {
	return Principal{ID: id, Kind: PrincipalUser}
}

func AdminPrincipal(id string) Principal {
	return Principal{ID: id, Kind: PrincipalAdmin}
}

// Same reports identity by principal id. Participant sets are unique by id,
// regardless of the kind tag.
func (p Principal) Same(other Principal) bool {
	return p.ID == other.ID
}
