package mangacontent

// Action is an operation a requester attempts on a manga.
type Action string

const (
	ActionCreate      Action = "create"
	ActionListOwn     Action = "list_own"
	ActionListPending Action = "list_pending"
	ActionReadPublic  Action = "read_public"
	ActionRead        Action = "read"
	ActionEdit        Action = "edit"
	ActionUpload      Action = "upload"
	ActionUploadCover Action = "upload_cover"
	ActionDelete      Action = "delete"
	ActionModerate    Action = "moderate"
)

type rule struct {
	// read rules conceal denied items as not found
	read       bool
	public     bool
	owner      bool
	roles      []Role
	anyoneAuth bool
}

var rules = map[Action]rule{
	ActionCreate:      {anyoneAuth: true},
	ActionListOwn:     {anyoneAuth: true},
	ActionListPending: {roles: []Role{RoleModerator, RoleAdmin}},
	ActionReadPublic:  {read: true, public: true},
	ActionRead:        {read: true, public: true, owner: true, roles: []Role{RoleModerator, RoleAdmin}},
	ActionEdit:        {owner: true, roles: []Role{RoleAdmin}},
	ActionUpload:      {owner: true, roles: []Role{RoleAdmin}},
	ActionUploadCover: {owner: true, roles: []Role{RoleAdmin}},
	ActionDelete:      {owner: true, roles: []Role{RoleModerator, RoleAdmin}},
	ActionModerate:    {roles: []Role{RoleModerator, RoleAdmin}},
}

// Authorize decides whether who may perform action on item. who is nil for
// anonymous requests and item is nil for collection actions.
//
// It returns nil when allowed, ErrNotFound when a read is denied (existence
// is not revealed), ErrUnauthenticated for anonymous requesters of
// non-read actions and ErrForbidden otherwise.
func Authorize(who *Identity, item *Manga, action Action) error {
	r, ok := rules[action]
	if !ok {
		return ErrForbidden
	}

	if r.read {
		if item != nil && item.Status.IsPublic() && r.public {
			return nil
		}
		if who != nil && item != nil && r.allows(who, item) {
			return nil
		}
		return ErrMangaNotFound
	}

	if who == nil {
		return ErrUnauthenticated
	}
	if r.anyoneAuth || r.allows(who, item) {
		return nil
	}
	return ErrForbidden
}

func (r rule) allows(who *Identity, item *Manga) bool {
	for _, role := range r.roles {
		if who.Role == role {
			return true
		}
	}
	return r.owner && item != nil && item.IsOwnedBy(who.ID)
}
