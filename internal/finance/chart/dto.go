package chart

type CreateNodeRequest struct {
	Code           string         `json:"codigo" validate:"required,max=40"`
	Name           string         `json:"nombre" validate:"required,max=200"`
	Classification Classification `json:"clasificacion,omitempty"`
	ParentID       *int64         `json:"padreId,omitempty" validate:"omitempty,gt=0"`
	Imputable      bool           `json:"imputable"`
	Description    *string        `json:"descripcion,omitempty" validate:"omitempty,max=500"`
}

type UpdateNodeRequest struct {
	Name        *string `json:"nombre,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"descripcion,omitempty" validate:"omitempty,max=500"`
}
