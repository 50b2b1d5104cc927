package repository

import "gorm.io/gorm"

// Repositories bundles every repository sharing one connection pool.
type Repositories struct {
	Requests      RequestRepository
	Users         UserRepository
	Departments   DepartmentRepository
	Catalog       CatalogRepository
	Activity      ActivityRepository
	Notifications NotificationRepository
	Tx            TransactionManager
}

func New(db *gorm.DB) Repositories {
	return Repositories{
		Requests:      NewRequestRepository(db),
		Users:         NewUserRepository(db),
		Departments:   NewDepartmentRepository(db),
		Catalog:       NewCatalogRepository(db),
		Activity:      NewActivityRepository(db),
		Notifications: NewNotificationRepository(db),
		Tx:            NewTransactionManager(db),
	}
}
