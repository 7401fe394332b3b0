// Package validation validates configuration structs declared with
// go-playground/validator struct tags and reports failures as
// CONFIG_INVALID AppErrors naming each offending field.
package validation
