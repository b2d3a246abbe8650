package models

// All lists every model owned by the application, in migration order.
func All() []any {
	return []any{
		&ContactList{},
		&Contact{},
		&ContactListMembership{},
		&DripCampaign{},
		&DripStep{},
		&Settings{},
		&SendLog{},
	}
}
