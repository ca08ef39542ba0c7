package mocks

//go:generate mockery --name EventLog --srcpkg github.com/aevon-lab/project-ledger/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name OffsetStore --srcpkg github.com/aevon-lab/project-ledger/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
