package services

var IsUniqueViolation = isUniqueViolation
