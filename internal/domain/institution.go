package domain

import "time"

// Address is a postal address embedded in institution and directory records.
type Address struct {
	Street  string `json:"street,omitempty" dynamodbav:"street"`
	City    string `json:"city,omitempty" dynamodbav:"city"`
	State   string `json:"state,omitempty" dynamodbav:"state"`
	Pincode string `json:"pincode,omitempty" dynamodbav:"pincode"`
}

// Institution is the profile an institute account maintains. One per owner.
type Institution struct {
	InstitutionID   string   `json:"id" dynamodbav:"institution_id"`
	OwnerID         string   `json:"owner_id" dynamodbav:"owner_id"`
	InstitutionName string   `json:"institution_name" dynamodbav:"institution_name"`
	InstitutionType string   `json:"institution_type" dynamodbav:"institution_type"`
	About           string   `json:"about,omitempty" dynamodbav:"about"`
	Email           string   `json:"email,omitempty" dynamodbav:"email"`
	Phone           string   `json:"phone,omitempty" dynamodbav:"phone"`
	Website         string   `json:"website,omitempty" dynamodbav:"website"`
	Address         Address  `json:"address" dynamodbav:"address"`
	Logo            string   `json:"logo,omitempty" dynamodbav:"logo"`
	GalleryImages   []string `json:"gallery_images,omitempty" dynamodbav:"gallery_images"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateInstitutionRequest struct {
	InstitutionName string   `json:"institution_name" validate:"required"`
	InstitutionType string   `json:"institution_type" validate:"required"`
	About           string   `json:"about"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone"`
	Website         string   `json:"website"`
	Address         Address  `json:"address"`
	Logo            string   `json:"logo"`
	GalleryImages   []string `json:"gallery_images"`
}

type UpdateInstitutionRequest struct {
	InstitutionName *string  `json:"institution_name"`
	InstitutionType *string  `json:"institution_type"`
	About           *string  `json:"about"`
	Email           *string  `json:"email" validate:"omitempty,email"`
	Phone           *string  `json:"phone"`
	Website         *string  `json:"website"`
	Address         *Address `json:"address"`
	Logo            *string  `json:"logo"`
	GalleryImages   []string `json:"gallery_images"`
}
