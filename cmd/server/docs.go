// Package main WorkLens Server API
//
//	@title						WorkLens Server API
//	@version					1.0
//	@description				Multi-tenant time tracking backend API
//
//	@contact.name				WorkLens Support
//	@contact.email				support@worklens.io
//
//	@license.name				Proprietary
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					auth
//	@tag.description			Registration and login
//
//	@tag.name					users
//	@tag.description			Users and roles
//
//	@tag.name					organization
//	@tag.description			Organization settings and quotas
//
//	@tag.name					teams
//	@tag.description			Teams, members and invitations
//
//	@tag.name					projects
//	@tag.description			Projects and project membership
//
//	@tag.name					tasks
//	@tag.description			Tasks and assignees
//
//	@tag.name					tracking
//	@tag.description			Time entries and breaks
//
//	@tag.name					reports
//	@tag.description			Aggregated time reports
package main
