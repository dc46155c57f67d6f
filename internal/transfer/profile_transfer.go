package transfer

type ProfileUpdate struct {
	FullName  Nullable[string] `json:"full_name"`
	AvatarURL Nullable[string] `json:"avatar_url"`
	Timezone  Nullable[string] `json:"timezone"`
}

func (p *ProfileUpdate) IsEmpty() bool {
	return !p.FullName.Set && !p.AvatarURL.Set && !p.Timezone.Set
}
